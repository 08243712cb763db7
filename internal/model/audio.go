// Package model はドメインモデルを定義する。
package model

import "time"

// AudioFile はユーザーがアップロードした音声ファイルのメタデータを表す。
// 実体ファイルは <upload_dir>/<user_id>/<id> に保存される。
type AudioFile struct {
	ID        string
	Filename  string // ユーザーが指定した元のファイル名
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
