package auth

import (
	"errors"
	"fmt"
)

// ErrTokenInvalid はセッショントークンの署名不一致・形式不正・アルゴリズム不一致を表す。
var ErrTokenInvalid = errors.New("session token is invalid")

// ErrTokenExpired は署名検証済みトークンの有効期限切れを表す。
var ErrTokenExpired = errors.New("session token is expired")

// ErrUnauthenticated は有効な認証主体を確立できなかったことを表す。
// トークン不正・期限切れ・アカウント消失はすべてこのエラーに集約される。
// 原因の区別はログにのみ残し、クライアントへは一律401で応答する。
var ErrUnauthenticated = errors.New("unauthenticated")

// ProviderAuthError はOAuthプロバイダーとの認証処理の失敗を表す。
// 観測可能性のためにトランスポート障害とプロバイダーによる拒否を区別するが、
// 認可コードは使い捨てのため、どちらの場合もリトライしてはならない。
type ProviderAuthError struct {
	// Transport はネットワーク到達性の問題による失敗かどうかを示す。
	// falseの場合はプロバイダーがコードまたはトークンを拒否したことを意味する。
	Transport bool
	err       error
}

// Error はerrorインターフェースを実装する。
func (e *ProviderAuthError) Error() string {
	if e.Transport {
		return fmt.Sprintf("provider unreachable: %v", e.err)
	}
	return fmt.Sprintf("provider rejected request: %v", e.err)
}

// Unwrap はラップされた原因エラーを返す。
func (e *ProviderAuthError) Unwrap() error {
	return e.err
}

// newTransportError はネットワーク障害によるProviderAuthErrorを生成する。
func newTransportError(err error) *ProviderAuthError {
	return &ProviderAuthError{Transport: true, err: err}
}

// newRejectedError はプロバイダーによる拒否を表すProviderAuthErrorを生成する。
func newRejectedError(format string, args ...interface{}) *ProviderAuthError {
	return &ProviderAuthError{err: fmt.Errorf(format, args...)}
}
