package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dunamis/faithhub/internal/model"
)

// ErrInvalidToken は署名不正・期限切れ・形式不正などで検証に失敗したトークンを表す。
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims はアクセストークンのクレーム。
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// RefreshClaims はリフレッシュトークンのクレーム。
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenCodec はHS256でトークンの署名と検証を行う。
// アクセストークンとリフレッシュトークンは別の鍵で署名するため、相互に流用できない。
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。
func NewTokenCodec(accessSecret, refreshSecret string) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// SignAccess はアカウントIDとロールを含むアクセストークンを発行する。
func (c *TokenCodec) SignAccess(userID string, role model.Role, ttl time.Duration) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: c.registeredClaims(ttl),
		UserID:           userID,
		Role:             string(role),
	}
	return c.sign(claims, c.accessSecret)
}

// SignRefresh はアカウントIDのみを含むリフレッシュトークンを発行する。
func (c *TokenCodec) SignRefresh(userID string, ttl time.Duration) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: c.registeredClaims(ttl),
		UserID:           userID,
	}
	return c.sign(claims, c.refreshSecret)
}

// VerifyAccess はアクセストークンを検証し、クレームを返す。
// 失敗時は理由に関わらずErrInvalidTokenをラップして返す。
func (c *TokenCodec) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(token, claims, c.accessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	return claims, nil
}

// VerifyRefresh はリフレッシュトークンを検証し、クレームを返す。
func (c *TokenCodec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(token, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	return claims, nil
}

// registeredClaims は発行時刻・有効期限・一意IDを設定する。
// jtiにより同一秒内に発行されたトークンも別の値になる。
func (c *TokenCodec) registeredClaims(ttl time.Duration) jwt.RegisteredClaims {
	now := c.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *TokenCodec) sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (c *TokenCodec) parse(token string, claims jwt.Claims, secret []byte) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
