package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/otodana/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Metrics           middleware.HTTPStatusRecorder
	Logger            *slog.Logger

	// サービス
	AuthService AuthServiceInterface
	UserService UserServiceInterface
	FileService FileServiceInterface

	// /metrics に公開するPrometheusハンドラー。nilの場合はルートを生やさない。
	MetricsHandler http.Handler

	MaxUploadSize int64
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Auth → RateLimit(General)
//
// 認証ルート（/auth/*）と/healthは認証チェーンの外に配置する。
// 管理者専用ルートはAdminミドルウェアを追加で通す（Authの後なので
// 未認証は401、権限不足のみ403になる）。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	fileHandler := NewFileHandler(deps.FileService, deps.MaxUploadSize)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/yandex", authHandler.Login)
		r.Get("/yandex/callback", authHandler.Callback)
		r.Post("/refresh", authHandler.Refresh)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Authenticator))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/me", userHandler.Me)
			r.Patch("/me", userHandler.UpdateMe)
			r.Get("/{id}", userHandler.Get)

			// DELETE /api/users/{id} - 管理者専用
			r.With(middleware.NewAdminMiddleware()).Delete("/{id}", userHandler.Delete)
		})

		// 音声ファイル管理
		r.Route("/api/files", func(r chi.Router) {
			// POST /api/files - アップロード（専用レート制限を追加）
			r.With(deps.RateLimiter.UploadMiddleware()).Post("/", fileHandler.Upload)

			r.Get("/", fileHandler.List)
			r.Get("/my", fileHandler.ListMine)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", fileHandler.Get)
				r.Get("/download", fileHandler.Download)
				r.Patch("/", fileHandler.Rename)

				// DELETE /api/files/{id} - 管理者専用
				r.With(middleware.NewAdminMiddleware()).Delete("/", fileHandler.Delete)
			})
		})
	})

	return r
}
