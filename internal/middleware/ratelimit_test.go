package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/otodana/internal/model"
)

func newTestRateLimiter(t *testing.T, config RateLimiterConfig) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config)
	t.Cleanup(rl.Stop)
	return rl
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	return req.WithContext(ContextWithUser(req.Context(), &model.User{ID: userID}))
}

// バースト内のリクエストが通過し、超過が429になることを検証
func TestRateLimiter_GeneralMiddleware(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    3,
		UploadRate:      rate.Limit(1),
		UploadBurst:     1,
		CleanupInterval: time.Minute,
	})

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("user-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header is missing")
	}
}

// ユーザーごとに独立して制限されることを検証
func TestRateLimiter_PerUserIsolation(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(0.01),
		GeneralBurst:    1,
		UploadRate:      rate.Limit(1),
		UploadBurst:     1,
		CleanupInterval: time.Minute,
	})

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("user-1 first request: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("user-1 second request: status = %d, want 429", rec.Code)
	}

	// 別のユーザーは影響を受けない
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-2"))
	if rec.Code != http.StatusOK {
		t.Errorf("user-2 first request: status = %d, want 200", rec.Code)
	}
}

// アップロードレーンがAPI全般レーンと独立に動作することを検証
func TestRateLimiter_UploadLaneIsIndependent(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(10),
		GeneralBurst:    100,
		UploadRate:      rate.Limit(0.01),
		UploadBurst:     1,
		CleanupInterval: time.Minute,
	})

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	upload := rl.UploadMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	upload.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first upload: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	upload.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload: status = %d, want 429", rec.Code)
	}

	// アップロードが枯渇してもAPI全般は通る
	rec = httptest.NewRecorder()
	general.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Errorf("general request: status = %d, want 200", rec.Code)
	}
}

// 認証を通っていないリクエストが401で拒否されることを検証
func TestRateLimiter_UnauthenticatedGets401(t *testing.T) {
	rl := newTestRateLimiter(t, NewRateLimiterConfig(120, 10))

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// 期限切れエントリがクリーンアップで削除されることを検証
func TestRateLimiter_Cleanup(t *testing.T) {
	rl := newTestRateLimiter(t, RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    1,
		UploadRate:      rate.Limit(1),
		UploadBurst:     1,
		CleanupInterval: time.Nanosecond,
	})

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("limiter count = %d, want 1", rl.GeneralLimiterCount())
	}

	time.Sleep(10 * time.Millisecond)
	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("limiter count after cleanup = %d, want 0", rl.GeneralLimiterCount())
	}
}
