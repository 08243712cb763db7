// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, file, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeProviderAuth    = "PROVIDER_AUTH_FAILED"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeUserNotFound    = "USER_NOT_FOUND"
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
	ErrCodeInvalidFileType = "INVALID_FILE_TYPE"
	ErrCodeFileTooLarge    = "FILE_TOO_LARGE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を実行する権限がありません。",
		Category: "auth",
		Action:   "管理者のみ実行できる操作です。",
	}
}

// NewProviderAuthError はOAuthプロバイダーでの認証失敗エラーを生成する。
// プロバイダー側の詳細は含めない。
func NewProviderAuthError() *APIError {
	return &APIError{
		Code:     ErrCodeProviderAuth,
		Message:  "外部プロバイダーでの認証に失敗しました。",
		Category: "auth",
		Action:   "最初からログインをやり直してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "validation",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewFileNotFoundError は音声ファイルが見つからない場合のエラーを生成する。
func NewFileNotFoundError(fileID string) *APIError {
	return &APIError{
		Code:     ErrCodeFileNotFound,
		Message:  fmt.Sprintf("指定された音声ファイルが見つかりません: %s", fileID),
		Category: "file",
		Action:   "ファイルIDを確認してください。",
	}
}

// NewInvalidFileTypeError は音声以外のファイルがアップロードされた場合のエラーを生成する。
func NewInvalidFileTypeError(contentType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFileType,
		Message:  fmt.Sprintf("対応していないファイル形式です: %s", contentType),
		Category: "validation",
		Action:   "音声ファイル（audio/*）のみアップロードできます。",
	}
}

// NewFileTooLargeError はアップロードサイズ超過エラーを生成する。
func NewFileTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeFileTooLarge,
		Message:  fmt.Sprintf("ファイルサイズが上限（%dバイト）を超えています。", maxBytes),
		Category: "validation",
		Action:   "ファイルサイズを小さくして再度お試しください。",
	}
}

// NewInternalError は内部サーバーエラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}
