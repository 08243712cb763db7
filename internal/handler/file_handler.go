package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/otodana/internal/middleware"
	"github.com/hitoshi/otodana/internal/model"
)

// FileServiceInterface は音声ファイルハンドラーが必要とするサービスインターフェース。
type FileServiceInterface interface {
	Upload(ctx context.Context, ownerID, filename, contentType string, r io.Reader) (*model.AudioFile, error)
	List(ctx context.Context) ([]*model.AudioFile, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.AudioFile, error)
	Get(ctx context.Context, id string) (*model.AudioFile, error)
	Download(ctx context.Context, id string) (*model.AudioFile, io.ReadCloser, error)
	Rename(ctx context.Context, id, filename string) (*model.AudioFile, error)
	Delete(ctx context.Context, id string) error
}

// FileHandler は音声ファイル管理のHTTPハンドラー。
type FileHandler struct {
	service       FileServiceInterface
	maxUploadSize int64
}

// NewFileHandler はFileHandlerを生成する。
func NewFileHandler(service FileServiceInterface, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

// Upload は音声ファイルをmultipart/form-dataで受け取り保存する。
// フォームフィールド名はfile。
// POST /api/files
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	// multipart全体のサイズ上限。ファイル単体の上限はサービス層でも検査する。
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewFileTooLargeError(h.maxUploadSize))
			return
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("fileフィールドがありません"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")

	created, err := h.service.Upload(r.Context(), current.ID, header.Filename, contentType, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toAudioFileResponse(created))
}

// multipartの境界やヘッダーの分のボディサイズ余裕
const formOverhead = 1 << 20

// List は全音声ファイルの一覧を返す。
// GET /api/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]audioFileResponse, len(files))
	for i, f := range files {
		results[i] = toAudioFileResponse(f)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// ListMine は現在のログインユーザーが所有する音声ファイルの一覧を返す。
// GET /api/files/my
func (h *FileHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	files, err := h.service.ListByOwner(r.Context(), current.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]audioFileResponse, len(files))
	for i, f := range files {
		results[i] = toAudioFileResponse(f)
	}
	writeJSONResponse(w, http.StatusOK, results)
}

// Get は指定IDの音声ファイルメタデータを返す。
// GET /api/files/{id}
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAudioFileResponse(file))
}

// Download は音声ファイル本体をストリーミングで返す。
// Content-Typeはアップロード時に保存していないため、octet-streamで返し
// 元のファイル名をContent-Dispositionで伝える。
// GET /api/files/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	file, rc, err := h.service.Download(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}

// renameRequest はファイル名変更のリクエストボディ。
type renameRequest struct {
	Filename string `json:"filename"`
}

// Rename は音声ファイルの名前を変更する。
// PATCH /api/files/{id}
func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONの解析に失敗しました"))
		return
	}

	file, err := h.service.Rename(r.Context(), id, req.Filename)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toAudioFileResponse(file))
}

// Delete は音声ファイルを削除する。管理者専用。
// DELETE /api/files/{id}
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
