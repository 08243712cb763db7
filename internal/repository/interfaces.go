// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/otodana/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByYandexID は外部subject IDでユーザーを検索する。見つからない場合はnilを返す。
	FindByYandexID(ctx context.Context, yandexID string) (*model.User, error)

	// Create はユーザーを作成する。
	// yandex_idのユニーク制約違反はErrDuplicateYandexIDを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はユーザーのname/emailを更新する。
	Update(ctx context.Context, user *model.User) error

	// List は全ユーザーをcreated_at昇順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するaudio_filesはCASCADE削除される。
	// 対象が存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// AudioFileRepository は音声ファイルメタデータの永続化インターフェース。
type AudioFileRepository interface {
	// Create は音声ファイルレコードを作成する。
	Create(ctx context.Context, file *model.AudioFile) error

	// FindByID は指定IDの音声ファイルを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.AudioFile, error)

	// List は全音声ファイルをcreated_at昇順で返す。
	List(ctx context.Context) ([]*model.AudioFile, error)

	// ListByUserID は指定ユーザーの音声ファイル一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.AudioFile, error)

	// UpdateFilename はファイル名を更新する。
	UpdateFilename(ctx context.Context, id, filename string) error

	// DeleteByID は指定IDの音声ファイルレコードを削除する。
	// 対象が存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error

	// ExistsByID は指定IDのレコードが存在するか返す。
	// ワーカーの孤児ファイル掃除で使用する。
	ExistsByID(ctx context.Context, id string) (bool, error)
}
