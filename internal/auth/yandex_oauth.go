package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultYandexAuthURL     = "https://oauth.yandex.ru/authorize"
	defaultYandexTokenURL    = "https://oauth.yandex.ru/token"
	defaultYandexUserInfoURL = "https://login.yandex.ru/info"

	// プロバイダーへのアウトバウンド呼び出しのタイムアウト。
	// 無期限にハングさせないための上限で、超過はProviderAuthError（transport）になる。
	defaultProviderTimeout = 10 * time.Second
)

// YandexOAuthConfig はYandex OAuthプロバイダーの設定。
type YandexOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// テスト用にオーバーライド可能なHTTPクライアント
	HTTPClient *http.Client
}

// YandexOAuthProvider はYandex OAuth 2.0による認証を提供する。
type YandexOAuthProvider struct {
	config YandexOAuthConfig
	client *http.Client
}

// NewYandexOAuthProvider はYandexOAuthProviderを生成する。
func NewYandexOAuthProvider(config YandexOAuthConfig) *YandexOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultYandexAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultYandexTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultYandexUserInfoURL
	}
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultProviderTimeout}
	}
	return &YandexOAuthProvider{config: config, client: client}
}

// LoginURL はYandex OAuthの認可URLを生成する。
// ネットワークI/Oを伴わない純粋なURL構築で、失敗しない。
func (p *YandexOAuthProvider) LoginURL() string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURI},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

// yandexTokenResponse はYandexのトークンエンドポイントのレスポンス。
type yandexTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// yandexUserInfo はYandexのユーザー情報エンドポイントのレスポンス。
// id以外のフィールドは欠落しうる外部入力として扱う。
type yandexUserInfo struct {
	ID           string `json:"id"`
	Login        string `json:"login"`
	DisplayName  string `json:"display_name"`
	DefaultEmail string `json:"default_email"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
// 認可コードは使い捨てのため、失敗しても同一コードで再試行してはならない。
func (p *YandexOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	// 1. 認可コードをアクセストークンに交換
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, err
	}

	// 2. アクセストークンでユーザー情報を取得
	userInfo, err := p.fetchUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		return nil, err
	}

	return &OAuthUserInfo{
		ProviderUserID: userInfo.ID,
		Email:          userInfo.DefaultEmail,
		Name:           displayName(userInfo),
	}, nil
}

// displayName は表示名を決定する。display_nameが欠落している場合はloginにフォールバックする。
func displayName(info *yandexUserInfo) string {
	if info.DisplayName != "" {
		return info.DisplayName
	}
	return info.Login
}

// exchangeToken は認可コードをアクセストークンに交換する。
// プロバイダーの契約により、パラメータはJSONではなく
// application/x-www-form-urlencodedのフォームフィールドとして送信する。
func (p *YandexOAuthProvider) exchangeToken(ctx context.Context, code string) (*yandexTokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to create token request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("token request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to read token response: %w", err))
	}

	// プロバイダーのレスポンスボディはエラーに含めない（クライアントへ漏らさない）
	if resp.StatusCode != http.StatusOK {
		return nil, newRejectedError("token exchange failed with status %d", resp.StatusCode)
	}

	var tokenResp yandexTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, newRejectedError("failed to parse token response")
	}

	if tokenResp.AccessToken == "" {
		return nil, newRejectedError("empty access token in response")
	}

	return &tokenResp, nil
}

// fetchUserInfo はアクセストークンでYandexのユーザー情報を取得する。
// Yandexの契約により、AuthorizationヘッダーはBearerではなく"OAuth <token>"形式を使用する。
func (p *YandexOAuthProvider) fetchUserInfo(ctx context.Context, accessToken string) (*yandexUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL+"?format=json", nil)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to create user info request: %w", err))
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("user info request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to read user info response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newRejectedError("user info fetch failed with status %d", resp.StatusCode)
	}

	var userInfo yandexUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, newRejectedError("failed to parse user info response")
	}

	if userInfo.ID == "" {
		return nil, newRejectedError("empty id in user info response")
	}

	return &userInfo, nil
}

// compile-time interface check
var _ OAuthProvider = (*YandexOAuthProvider)(nil)
