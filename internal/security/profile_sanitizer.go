// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ProfileSanitizerService はOAuthプロバイダー由来およびユーザー編集による
// プロフィール文字列（表示名など）をサニタイズし、保存値へのHTML混入を防ぐ。
// bluemondayのStrictPolicyにより全てのタグを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizerService はプロフィール文字列のサニタイズ機能のインターフェースを定義する。
// プロバイダープロフィールの取り込み時とプロフィール編集時に使用される。
type ProfileSanitizerService interface {
	// Sanitize は入力文字列から全てのHTMLタグを除去し、前後の空白を取り除き、
	// 最大文字数に切り詰めて返す。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、script等を含む全ての要素が除去される。
func NewProfileSanitizer() *profileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxNameLength は表示名として保存する最大文字数（rune単位）。
// プロバイダー由来の異常に長い文字列をそのまま保存させない上限。
const maxNameLength = 256

// Sanitize は入力文字列から全てのHTMLタグを除去し、最大文字数に切り詰めて返す。
func (s *profileSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := strings.TrimSpace(s.policy.Sanitize(raw))
	if runes := []rune(cleaned); len(runes) > maxNameLength {
		cleaned = strings.TrimSpace(string(runes[:maxNameLength]))
	}
	return cleaned
}

// compile-time interface check
var _ ProfileSanitizerService = (*profileSanitizer)(nil)
