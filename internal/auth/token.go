package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCodec は内部セッショントークンの発行と検証を行う。
// プロセス全体で共有する署名シークレットとアルゴリズムは起動時に1回だけ
// 注入され、以後変更されない。トークンはサーバー側に保存されず、
// 有効性は署名と有効期限のみで決まる（シークレットのローテーションは
// 発行済みトークンを全て無効化する）。
type TokenCodec struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenCodec はTokenCodecを生成する。
// algorithmはHS256/HS384/HS512のいずれか。ttlSecondsは正の値であること。
func NewTokenCodec(secret, algorithm string, ttlSeconds int) (*TokenCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("token TTL must be positive, got %d", ttlSeconds)
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}

	return &TokenCodec{
		secret: []byte(secret),
		method: method,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// Issue は指定ユーザーIDをsubjectとするセッショントークンを発行する。
// 有効期限は絶対時刻（now + TTL）としてトークンに埋め込まれる。
func (c *TokenCodec) Issue(userID string) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(c.method, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Verify はセッショントークンを検証し、subject（ユーザーID）を返す。
// 署名検証が有効期限の確認に必ず先行する。署名が一致しない限り、
// トークンに埋め込まれた有効期限は一切信用しない。
// 失敗はErrTokenInvalid（署名・形式・アルゴリズム・subject不正）
// またはErrTokenExpired（検証済みトークンの期限切れ）のいずれかを返す。
func (c *TokenCodec) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}))

	if err != nil {
		// 署名関連の失敗を先に判定する。署名が壊れたトークンは
		// 期限切れかどうかにかかわらずErrTokenInvalidとする。
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenUnverifiable):
			return "", ErrTokenInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		default:
			return "", ErrTokenInvalid
		}
	}

	// subjectはユーザーIDとして解釈可能な形であること
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", ErrTokenInvalid
	}

	return claims.Subject, nil
}

// TTL はトークンの有効期間を返す。
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}
