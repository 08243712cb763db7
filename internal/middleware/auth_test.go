package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/otodana/internal/auth"
	"github.com/hitoshi/otodana/internal/model"
)

type mockAuthenticator struct {
	authenticateFunc func(ctx context.Context, rawToken string) (*model.User, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, rawToken string) (*model.User, error) {
	return m.authenticateFunc(ctx, rawToken)
}

var _ Authenticator = (*mockAuthenticator)(nil)

// 有効なbearerトークンでユーザーがコンテキストに注入されることを検証
func TestAuthMiddleware_ValidToken(t *testing.T) {
	user := &model.User{ID: "user-1"}
	authenticator := &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, rawToken string) (*model.User, error) {
			if rawToken != "valid-token" {
				t.Errorf("Authenticate called with %q, want valid-token", rawToken)
			}
			return user, nil
		},
	}

	var gotUser *model.User
	handler := NewAuthMiddleware(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUser == nil || gotUser.ID != "user-1" {
		t.Errorf("context user = %v, want user-1", gotUser)
	}
}

// ヘッダーの欠落・空・非Bearer形式で検証を呼ばずに401を返すことを検証
func TestAuthMiddleware_MissingOrMalformedHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"ヘッダーなし", ""},
		{"Bearer接頭辞なし", "valid-token"},
		{"トークンが空", "Bearer "},
		{"別のスキーム", "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticator := &mockAuthenticator{
				authenticateFunc: func(ctx context.Context, rawToken string) (*model.User, error) {
					t.Error("Authenticate must not be called when the header is missing or malformed")
					return nil, nil
				},
			}

			handler := NewAuthMiddleware(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("next handler must not be reached")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}

			var body ErrorResponseBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body.Code != model.ErrCodeUnauthorized {
				t.Errorf("error code = %q, want UNAUTHORIZED", body.Code)
			}
		})
	}
}

// 検証失敗が一律401になることを検証
func TestAuthMiddleware_AuthenticationFailure(t *testing.T) {
	authenticator := &mockAuthenticator{
		authenticateFunc: func(ctx context.Context, rawToken string) (*model.User, error) {
			return nil, auth.ErrUnauthenticated
		},
	}

	handler := NewAuthMiddleware(authenticator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// コンテキストにユーザーがない場合のUserFromContextの挙動を検証
func TestUserFromContext(t *testing.T) {
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected an error for a context without a user")
	}

	user := &model.User{ID: "user-1"}
	ctx := ContextWithUser(context.Background(), user)
	got, err := UserFromContext(ctx)
	if err != nil {
		t.Fatalf("UserFromContext failed: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("user ID = %q, want user-1", got.ID)
	}
}
