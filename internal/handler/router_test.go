package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dunamis/faithhub/internal/metrics"
	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/model"
	"github.com/dunamis/faithhub/internal/resource"
)

// tokenAuthenticator は"user-token"と"admin-token"のみを有効なトークンとして扱う。
type tokenAuthenticator struct{}

func (tokenAuthenticator) Authenticate(token string) (*model.Identity, error) {
	switch token {
	case "":
		return nil, model.NewNoTokenError()
	case "user-token":
		return &model.Identity{UserID: "user-1", Role: model.RoleUser}, nil
	case "admin-token":
		return &model.Identity{UserID: "admin-1", Role: model.RoleAdmin}, nil
	default:
		return nil, model.NewInvalidTokenError()
	}
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(ctx context.Context) error { return p.err }

func newTestDeps(t *testing.T) *RouterDeps {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1000, time.Minute, 1000))
	t.Cleanup(rl.Stop)

	return &RouterDeps{
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Authenticator:      tokenAuthenticator{},
		RateLimiter:        rl,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		CacheMaxAge:        5 * time.Minute,
		HealthChecker:      stubPinger{},
		AuthService:        &mockAuthService{},
		UserService:        &mockUserService{},
		CategoryService:    &mockCategoryService{},
		ResourceService:    &mockResourceService{},
		FeedImporter:       &mockImporter{},
	}
}

func doRequest(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_AccessControl(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		// 公開ルート
		{name: "リソース一覧は公開", method: http.MethodGet, path: "/api/resources", wantStatus: http.StatusOK},
		{name: "注目リソースは公開", method: http.MethodGet, path: "/api/resources/featured", wantStatus: http.StatusOK},
		{name: "リソース詳細は公開", method: http.MethodGet, path: "/api/resources/res-1", wantStatus: http.StatusOK},
		{name: "種別別一覧は公開", method: http.MethodGet, path: "/api/resources/category/book", wantStatus: http.StatusOK},
		{name: "カテゴリ一覧は公開", method: http.MethodGet, path: "/api/categories", wantStatus: http.StatusOK},
		{name: "ログインは公開", method: http.MethodPost, path: "/api/auth/login", body: `{}`, wantStatus: http.StatusOK},

		// 認証が必要
		{name: "meはトークン必須", method: http.MethodGet, path: "/api/auth/me", wantStatus: http.StatusUnauthorized},
		{name: "不正なトークン", method: http.MethodGet, path: "/api/auth/me", token: "forged", wantStatus: http.StatusUnauthorized},
		{name: "me成功", method: http.MethodGet, path: "/api/auth/me", token: "user-token", wantStatus: http.StatusOK},
		{name: "ログアウトはトークン必須", method: http.MethodPost, path: "/api/auth/logout", wantStatus: http.StatusUnauthorized},
		{name: "プロフィール更新は一般ユーザー可", method: http.MethodPut, path: "/api/users/profile/update", token: "user-token", body: `{}`, wantStatus: http.StatusOK},

		// 管理者のみ
		{name: "ユーザー一覧は一般ユーザー不可", method: http.MethodGet, path: "/api/users", token: "user-token", wantStatus: http.StatusForbidden},
		{name: "ユーザー一覧は管理者可", method: http.MethodGet, path: "/api/users", token: "admin-token", wantStatus: http.StatusOK},
		{name: "カテゴリ作成はトークン必須", method: http.MethodPost, path: "/api/categories", body: `{}`, wantStatus: http.StatusUnauthorized},
		{name: "カテゴリ作成は一般ユーザー不可", method: http.MethodPost, path: "/api/categories", token: "user-token", body: `{}`, wantStatus: http.StatusForbidden},
		{name: "カテゴリ作成は管理者可", method: http.MethodPost, path: "/api/categories", token: "admin-token", body: `{"name":"X","color":"#000"}`, wantStatus: http.StatusCreated},
		{name: "リソース削除は一般ユーザー不可", method: http.MethodDelete, path: "/api/resources/res-1", token: "user-token", wantStatus: http.StatusForbidden},
		{name: "リソース削除は管理者可", method: http.MethodDelete, path: "/api/resources/res-1", token: "admin-token", wantStatus: http.StatusOK},
		{name: "インポートは管理者可", method: http.MethodPost, path: "/api/resources/import", token: "admin-token", body: `{}`, wantStatus: http.StatusOK},
		{name: "インポートは一般ユーザー不可", method: http.MethodPost, path: "/api/resources/import", token: "user-token", body: `{}`, wantStatus: http.StatusForbidden},

		// 監視
		{name: "ヘルスチェック", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "存在しないルート", method: http.MethodGet, path: "/api/unknown", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, "body: %s", w.Body.String())
		})
	}
}

func TestRouter_ResourceCreate_AuthorFromToken(t *testing.T) {
	deps := newTestDeps(t)
	var gotAuthor string
	deps.ResourceService = &mockResourceService{
		createFn: func(ctx context.Context, authorID string, in resource.CreateInput) (*model.ResourceWithAuthor, error) {
			gotAuthor = authorID
			return sampleResource("res-new"), nil
		},
	}
	router := NewRouter(deps)

	w := doRequest(router, http.MethodPost, "/api/resources", "admin-token", `{"title":"T"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin-1", gotAuthor)
}

func TestRouter_CategoryCache_ETag(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	first := doRequest(router, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "public, max-age=300", first.Header().Get("Cache-Control"))

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("If-None-Match", etag)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRouter_AuthRateLimit(t *testing.T) {
	deps := newTestDeps(t)
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(2, 15*time.Minute, 1000))
	t.Cleanup(rl.Stop)
	deps.RateLimiter = rl
	router := NewRouter(deps)

	for i := 0; i < 2; i++ {
		w := doRequest(router, http.MethodPost, "/api/auth/login", "", `{}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(router, http.MethodPost, "/api/auth/login", "", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 認証以外のルートは影響を受けない
	w = doRequest(router, http.MethodGet, "/api/resources", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SecurityAndCORSHeaders(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	req := httptest.NewRequest(http.MethodGet, "/api/resources", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_HealthDown(t *testing.T) {
	deps := newTestDeps(t)
	deps.HealthChecker = stubPinger{err: errors.New("connection refused")}
	router := NewRouter(deps)

	w := doRequest(router, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
}

func TestRouter_Metrics(t *testing.T) {
	deps := newTestDeps(t)
	reg := prometheus.NewRegistry()
	deps.Metrics = metrics.NewCollector(reg)
	deps.MetricsHandler = metrics.Handler(reg)
	router := NewRouter(deps)

	doRequest(router, http.MethodGet, "/api/resources/res-1", "", "")

	w := doRequest(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "faithhub_http_requests_total")
	assert.Contains(t, body, `route="/api/resources/{id}"`)
}
