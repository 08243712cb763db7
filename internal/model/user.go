// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// アカウントはYandex OAuthの初回ログイン時にのみ作成される。
type User struct {
	ID          string
	YandexID    string // Yandexが発行する外部subject ID（ユニーク）
	Email       string
	Name        string
	IsSuperuser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
