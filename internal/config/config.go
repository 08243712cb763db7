// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 署名シークレットやクライアント認証情報をグローバル状態で持ち回らず、
// 各コンポーネントのコンストラクタへ明示的に注入する。
type Config struct {
	// Database
	DatabaseURL string

	// Yandex OAuth
	YandexClientID     string
	YandexClientSecret string
	YandexRedirectURI  string

	// セッショントークン（JWT）
	JWTSecret     string
	JWTAlgorithm  string // HS256 / HS384 / HS512
	JWTExpSeconds int    // トークン有効期間（秒）

	// ファイルストレージ
	UploadDir     string
	MaxUploadSize int64 // アップロード上限（バイト）

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitUpload  int

	// Worker
	OrphanSweepInterval time.Duration

	// Server
	ServerPort string
	BaseURL    string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.YandexClientID = os.Getenv("YANDEX_CLIENT_ID")
	if cfg.YandexClientID == "" {
		missing = append(missing, "YANDEX_CLIENT_ID")
	}

	cfg.YandexClientSecret = os.Getenv("YANDEX_CLIENT_SECRET")
	if cfg.YandexClientSecret == "" {
		missing = append(missing, "YANDEX_CLIENT_SECRET")
	}

	cfg.YandexRedirectURI = os.Getenv("YANDEX_REDIRECT_URI")
	if cfg.YandexRedirectURI == "" {
		missing = append(missing, "YANDEX_REDIRECT_URI")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	// トークンコーデックは大文字のアルゴリズム名を期待するため、ここで正規化する
	cfg.JWTAlgorithm = strings.ToUpper(getEnvString("JWT_ALGORITHM", "HS256"))
	if !isSupportedAlgorithm(cfg.JWTAlgorithm) {
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM: %s (supported: HS256, HS384, HS512)", cfg.JWTAlgorithm)
	}

	cfg.JWTExpSeconds = getEnvInt("JWT_EXP_DELTA_SECONDS", 86400)
	if cfg.JWTExpSeconds <= 0 {
		return nil, fmt.Errorf("JWT_EXP_DELTA_SECONDS must be positive, got %d", cfg.JWTExpSeconds)
	}

	cfg.UploadDir = getEnvString("UPLOAD_DIR", "uploads")
	cfg.MaxUploadSize = getEnvInt64("MAX_UPLOAD_SIZE", 52428800) // 50MiB
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitUpload = getEnvInt("RATE_LIMIT_UPLOAD", 10)
	cfg.OrphanSweepInterval = getEnvDuration("ORPHAN_SWEEP_INTERVAL", 24*time.Hour)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// isSupportedAlgorithm はトークン署名アルゴリズムがサポート対象か判定する。
// HMAC系のみをサポートする（署名検証側でも同一アルゴリズムを強制する）。
func isSupportedAlgorithm(alg string) bool {
	switch strings.ToUpper(alg) {
	case "HS256", "HS384", "HS512":
		return true
	default:
		return false
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
