// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dunamis/faithhub/internal/auth"
	"github.com/dunamis/faithhub/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var identityContextKey = contextKey("identity")

// Authenticator はアクセストークンから呼び出し元を特定するインターフェース。
// auth.Serviceが実装する。
type Authenticator interface {
	Authenticate(accessToken string) (*model.Identity, error)
}

// BearerToken はAuthorizationヘッダーから"Bearer "に続くトークンを取り出す。
// ヘッダーがない場合や形式が異なる場合は空文字列を返す。
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// NewAuthMiddleware はBearerトークンを検証し、呼び出し元のIdentityを
// リクエストコンテキストに注入するミドルウェアを返す。
// トークンがない場合と不正な場合はいずれも401を返す。
func NewAuthMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Authenticate(BearerToken(r))
			if err != nil {
				WriteError(w, r, err)
				return
			}
			recordUserID(r.Context(), identity.UserID)
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole は呼び出し元のロールがrequiredと一致しない場合に403を返すミドルウェアを返す。
// NewAuthMiddlewareの後に配置する。
func RequireRole(required model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())
			if err := auth.Authorize(identity, required); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext はリクエストコンテキストから呼び出し元のIdentityを取得する。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	return identity, ok && identity != nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
