package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/otodana/internal/model"
)

// 管理者が通過できることを検証
func TestAdminMiddleware_SuperuserPasses(t *testing.T) {
	handler := NewAdminMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/users/abc", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: "admin-1", IsSuperuser: true}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// 一般ユーザーが403で拒否されることを検証
func TestAdminMiddleware_RegularUserForbidden(t *testing.T) {
	handler := NewAdminMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/users/abc", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: "user-1", IsSuperuser: false}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Code != model.ErrCodeForbidden {
		t.Errorf("error code = %q, want FORBIDDEN", body.Code)
	}
}

// 認証を通っていないリクエストが403ではなく401で拒否されることを検証
func TestAdminMiddleware_UnauthenticatedGets401(t *testing.T) {
	handler := NewAdminMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/users/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
