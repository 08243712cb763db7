// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/otodana/internal/model"
)

const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// Authenticator はbearerトークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*model.User, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのbearerトークンを検証し、
// 認証済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダーが欠落・空・非Bearer形式の場合は検証を呼ばずに401を返す。
// トークンの不正・期限切れ・アカウント消失も一律401で、原因は区別しない。
func NewAuthMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Authorizationヘッダーからトークンを取り出す
			token := extractBearerToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 2. トークンを検証し、現存するユーザーを解決
			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			// 3. 認証済みユーザーをコンテキストに注入
			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken はAuthorizationヘッダーからbearerトークンを取り出す。
// ヘッダーが欠落している場合やBearer形式でない場合は空文字を返す。
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
