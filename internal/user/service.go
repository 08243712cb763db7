// Package user はユーザーアカウント管理に関するビジネスロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/otodana/internal/model"
	"github.com/hitoshi/otodana/internal/repository"
)

// UserDirRemover はユーザーのアップロードディレクトリ削除インターフェース。
// storage.LocalStoreの部分集合として定義する。
type UserDirRemover interface {
	RemoveUserDir(userID string) error
}

// NameSanitizer はユーザー入力の表示名をサニタイズするインターフェース。
type NameSanitizer interface {
	Sanitize(raw string) string
}

// ProfileUpdate はプロフィールの部分更新を表す。nilのフィールドは変更しない。
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// Service はユーザーアカウントに関するビジネスロジックを提供する。
type Service struct {
	repo      repository.UserRepository
	store     UserDirRemover
	sanitizer NameSanitizer
}

// NewService はServiceを生成する。
func NewService(repo repository.UserRepository, store UserDirRemover, sanitizer NameSanitizer) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		sanitizer: sanitizer,
	}
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// List は全ユーザーの一覧を返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateProfile はプロフィールを部分更新し、更新後のユーザーを返す。
// nilのフィールドは既存値を維持する。表示名は保存前にサニタイズする。
func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := *update.Name
		if s.sanitizer != nil {
			name = s.sanitizer.Sanitize(name)
		}
		user.Name = name
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewUserNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user profile updated", slog.String("user_id", id))

	return user, nil
}

// Delete はユーザーアカウントを削除する。
// レコードを先に削除し（audio_filesはCASCADE削除）、
// アップロードディレクトリの削除はベストエフォートで行う。
// ディレクトリ削除の失敗はログに残すのみで、孤児ファイルはワーカーが回収する。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewUserNotFoundError(id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := s.store.RemoveUserDir(id); err != nil {
		slog.Error("failed to remove user upload directory",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("user deleted", slog.String("user_id", id))

	return nil
}
