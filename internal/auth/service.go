// Package auth はOAuth認証フロー、セッショントークン管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/otodana/internal/model"
	"github.com/hitoshi/otodana/internal/repository"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
// ProviderUserID以外のフィールドは空でありうる。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// LoginURL はOAuth認可URLを生成する。
	LoginURL() string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// SessionTokenCodec はセッショントークンの発行・検証インターフェース。
// TokenCodecの部分集合として定義する。
type SessionTokenCodec interface {
	Issue(userID string) (string, error)
	Verify(raw string) (string, error)
}

// NameSanitizer はプロバイダー由来の表示名をサニタイズするインターフェース。
// security.ProfileSanitizerServiceの部分集合として定義する。
type NameSanitizer interface {
	Sanitize(raw string) string
}

// MetricsRecorder は認証関連メトリクスの記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordLogin(result string)
	RecordTokenIssued()
	RecordTokenVerification(result string)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth     OAuthProvider
	codec     SessionTokenCodec
	userRepo  repository.UserRepository
	sanitizer NameSanitizer
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(
	oauth OAuthProvider,
	codec SessionTokenCodec,
	userRepo repository.UserRepository,
	sanitizer NameSanitizer,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		oauth:     oauth,
		codec:     codec,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

// LoginURL はOAuth認可URLを生成する。
func (s *Service) LoginURL() string {
	return s.oauth.LoginURL()
}

// HandleCallback はOAuthコールバックを処理し、セッショントークンを発行する。
// 未登録ユーザーの場合はusersレコードを自動作成する。
// 登録済みユーザーの場合はyandex_idで既存ユーザーを特定しログインする。
// 認可コードは使い捨てのため、失敗後に同一コードで再呼び出ししてはならない。
func (s *Service) HandleCallback(ctx context.Context, code string) (string, error) {
	// 1. 認可コードをトークンに交換し、ユーザー情報を取得
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.recordLogin("failure")
		return "", fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	// 2. プロバイダー由来の表示名は信用せず、境界でサニタイズする
	if s.sanitizer != nil {
		userInfo.Name = s.sanitizer.Sanitize(userInfo.Name)
	}

	// 3. 外部IDから内部アカウントを解決（初回ログイン時は作成）
	user, err := s.resolveOrCreate(ctx, userInfo)
	if err != nil {
		s.recordLogin("failure")
		return "", fmt.Errorf("failed to resolve account: %w", err)
	}

	// 4. セッショントークンを発行
	token, err := s.codec.Issue(user.ID)
	if err != nil {
		s.recordLogin("failure")
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	s.recordLogin("success")
	if s.metrics != nil {
		s.metrics.RecordTokenIssued()
	}

	return token, nil
}

// Authenticate はbearerトークンを検証し、対応する現存ユーザーを返す。
// トークン不正・期限切れ・ユーザー消失はすべてErrUnauthenticatedに集約する。
// 原因の区別はログにのみ残す（subjectの妥当性やアカウント存在の
// オラクルにならないようにする）。
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*model.User, error) {
	userID, err := s.codec.Verify(rawToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			s.recordVerification("expired")
			slog.Warn("session token expired")
		default:
			s.recordVerification("invalid")
			slog.Warn("session token invalid")
		}
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// 有効なトークンでもアカウントが削除済みなら未認証として扱う
		s.recordVerification("account_missing")
		slog.Warn("token subject has no account", slog.String("user_id", userID))
		return nil, ErrUnauthenticated
	}

	s.recordVerification("success")
	return user, nil
}

// Refresh は提示されたトークンを認証し、同一subjectの新しいトークンを発行する。
func (s *Service) Refresh(ctx context.Context, rawToken string) (string, error) {
	user, err := s.Authenticate(ctx, rawToken)
	if err != nil {
		return "", err
	}

	token, err := s.codec.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordTokenIssued()
	}

	return token, nil
}

// resolveOrCreate は外部IDから内部ユーザーを冪等に解決する。
// 既存ユーザーはそのまま返す（ログインのたびにプロバイダー情報で
// プロフィール編集を上書きしない）。未登録の場合のみ作成する。
// 同一外部IDの同時初回ログインはユニーク制約違反として検出し、
// 相手が作成したレコードを再取得して回復する。
func (s *Service) resolveOrCreate(ctx context.Context, userInfo *OAuthUserInfo) (*model.User, error) {
	user, err := s.userRepo.FindByYandexID(ctx, userInfo.ProviderUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by yandex ID: %w", err)
	}
	if user != nil {
		slog.Info("existing user logged in",
			slog.String("user_id", user.ID),
		)
		return user, nil
	}

	now := time.Now()
	newUser := &model.User{
		ID:          uuid.New().String(),
		YandexID:    userInfo.ProviderUserID,
		Email:       userInfo.Email,
		Name:        userInfo.Name,
		IsSuperuser: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicateYandexID) {
			// 別のリクエストが先に作成した。作成済みレコードを取得して返す。
			existing, findErr := s.userRepo.FindByYandexID(ctx, userInfo.ProviderUserID)
			if findErr != nil {
				return nil, fmt.Errorf("failed to re-fetch user after duplicate insert: %w", findErr)
			}
			if existing == nil {
				return nil, fmt.Errorf("user disappeared after duplicate insert")
			}
			slog.Info("concurrent first login resolved to existing user",
				slog.String("user_id", existing.ID),
			)
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", newUser.ID),
		slog.String("email", newUser.Email),
	)

	return newUser, nil
}

func (s *Service) recordLogin(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}

func (s *Service) recordVerification(result string) {
	if s.metrics != nil {
		s.metrics.RecordTokenVerification(result)
	}
}
