package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/otodana/internal/middleware"
	"github.com/hitoshi/otodana/internal/model"
	"github.com/hitoshi/otodana/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdateProfile(ctx context.Context, id string, update user.ProfileUpdate) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Me は現在のログインユーザー情報を返す。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(current))
}

// updateProfileRequest はプロフィール更新のリクエストボディ。
// 省略されたフィールドは変更しない。
type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UpdateMe は現在のユーザーのプロフィールを部分更新する。
// PATCH /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONの解析に失敗しました"))
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), current.ID, user.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(updated))
}

// List は全ユーザーの一覧を返す。
// GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]userResponse, len(users))
	for i, u := range users {
		results[i] = toUserResponse(u)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// Get は指定IDのユーザーを返す。
// GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(u))
}

// Delete は指定IDのユーザーを削除する。管理者専用。
// DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
