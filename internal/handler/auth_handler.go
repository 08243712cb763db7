// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/otodana/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginURL() string
	HandleCallback(ctx context.Context, code string) (string, error)
	Refresh(ctx context.Context, rawToken string) (string, error)
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// Login はYandex OAuthフローを開始する。
// GET /auth/yandex
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.LoginURL(), http.StatusFound)
}

// Callback はOAuthコールバックを処理し、セッショントークンを返す。
// GET /auth/yandex/callback?code=xxx
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// 1. 認可コードの取得
	code := r.URL.Query().Get("code")
	if code == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("認可コードがありません"))
		return
	}

	// 2. 認証処理
	token, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		// プロバイダー側の詳細はログのみに残し、クライアントには一般的なメッセージを返す
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewProviderAuthError())
		return
	}

	// 3. セッショントークンをレスポンスボディで返す
	writeJSONResponse(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Refresh は提示されたトークンと同一subjectの新しいトークンを発行する。
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	token, err := h.service.Refresh(r.Context(), raw)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
