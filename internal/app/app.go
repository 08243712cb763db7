package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/otodana/internal/audio"
	"github.com/hitoshi/otodana/internal/auth"
	"github.com/hitoshi/otodana/internal/config"
	"github.com/hitoshi/otodana/internal/database"
	"github.com/hitoshi/otodana/internal/handler"
	"github.com/hitoshi/otodana/internal/logger"
	"github.com/hitoshi/otodana/internal/metrics"
	"github.com/hitoshi/otodana/internal/middleware"
	"github.com/hitoshi/otodana/internal/repository"
	"github.com/hitoshi/otodana/internal/security"
	"github.com/hitoshi/otodana/internal/storage"
	"github.com/hitoshi/otodana/internal/user"
	"github.com/hitoshi/otodana/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	audioRepo := repository.NewPostgresAudioFileRepo(db)

	// 3. セキュリティ・メトリクスの初期化
	sanitizer := security.NewProfileSanitizer()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ファイルストレージの初期化
	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize file store: %w", err)
	}

	// 5. ドメインサービスの初期化
	oauthProvider := auth.NewYandexOAuthProvider(auth.YandexOAuthConfig{
		ClientID:     cfg.YandexClientID,
		ClientSecret: cfg.YandexClientSecret,
		RedirectURI:  cfg.YandexRedirectURI,
	})
	tokenCodec, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTExpSeconds)
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	authService := auth.NewService(oauthProvider, tokenCodec, userRepo, sanitizer, collector)

	audioService := audio.NewService(audioRepo, store, cfg.MaxUploadSize, collector)
	userService := user.NewService(userRepo, store, sanitizer)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitUpload),
	)

	deps := &handler.RouterDeps{
		Authenticator:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		Logger:            slog.Default(),

		AuthService: authService,
		UserService: userService,
		FileService: audioService,

		MetricsHandler: metrics.Handler(registry),

		MaxUploadSize: cfg.MaxUploadSize,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、孤児ファイル掃除ジョブを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリ・ストレージの初期化
	audioRepo := repository.NewPostgresAudioFileRepo(db)

	store, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize file store: %w", err)
	}

	// 3. 掃除ジョブの初期化
	// ワーカーはメトリクスエンドポイントを持たないため、記録はスキップする。
	// 掃除間隔より新しいファイルは進行中のアップロードとみなして見送る。
	sweepJob := cleanup.NewOrphanSweepJob(audioRepo, store, slog.Default(), nil, cfg.OrphanSweepInterval)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("sweep_interval", cfg.OrphanSweepInterval),
		slog.String("upload_dir", cfg.UploadDir),
	)

	// 起動直後に1回実行し、以降は設定間隔で繰り返す
	if err := sweepJob.Run(ctx); err != nil {
		slog.Error("orphan sweep job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(cfg.OrphanSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped gracefully")
			return nil
		case <-ticker.C:
			if err := sweepJob.Run(ctx); err != nil {
				slog.Error("orphan sweep job failed", slog.String("error", err.Error()))
			}
		}
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
