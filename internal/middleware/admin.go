package middleware

import (
	"net/http"

	"github.com/hitoshi/otodana/internal/model"
)

// NewAdminMiddleware は管理者のみ通過できるミドルウェアを返す。
// 認証ミドルウェアの後に配置すること。これにより未認証リクエストは
// 403ではなく必ず401で拒否される（身元が確立してから権限を判定する）。
func NewAdminMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !user.IsSuperuser {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
