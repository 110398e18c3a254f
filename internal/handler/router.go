package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dunamis/faithhub/internal/metrics"
	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Authenticator      middleware.Authenticator
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
	EnableHSTS         bool
	CacheMaxAge        time.Duration

	// 監視
	HealthChecker  HealthChecker
	Metrics        *metrics.Collector
	MetricsHandler http.Handler

	// サービス
	AuthService     AuthServiceInterface
	UserService     UserServiceInterface
	CategoryService CategoryServiceInterface
	ResourceService ResourceServiceInterface
	FeedImporter    FeedImporter
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → RealIP → SecurityHeaders → CORS → Logging → Metrics
//	→ (/api) RateLimit(General) → (/api/auth) RateLimit(Auth) → Authenticate → RequireRole
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.EnableHSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "NOT_FOUND",
			Message:  "Route not found",
			Category: "system",
		})
	})

	authHandler := NewAuthHandler(deps.AuthService)
	userHandler := NewUserHandler(deps.UserService)
	categoryHandler := NewCategoryHandler(deps.CategoryService)
	resourceHandler := NewResourceHandler(deps.ResourceService, deps.FeedImporter)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	authenticate := middleware.NewAuthMiddleware(deps.Authenticator)
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	cache := middleware.NewCacheMiddleware(deps.CacheMaxAge)

	// --- 監視用ルート ---
	r.Get("/health", healthHandler.Check)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 認証（認証用レート制限を追加）
		r.Route("/auth", func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
			})
		})

		// ユーザー管理
		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)

			// 自分自身のプロフィールは一般ユーザーも更新できる
			r.Put("/profile/update", userHandler.UpdateProfile)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})

		// カテゴリ（GETはキャッシュ対象）
		r.Route("/categories", func(r chi.Router) {
			r.With(cache).Get("/", categoryHandler.List)
			r.With(cache).Get("/{id}", categoryHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", categoryHandler.Create)
				r.Put("/{id}", categoryHandler.Update)
				r.Delete("/{id}", categoryHandler.Delete)
			})
		})

		// リソース
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", resourceHandler.List)
			r.Get("/featured", resourceHandler.Featured)
			r.Get("/search", resourceHandler.Search)
			r.Get("/category/{category}", resourceHandler.ListByCategory)
			r.Get("/{id}", resourceHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", resourceHandler.Create)
				r.Post("/import", resourceHandler.Import)
				r.Put("/{id}", resourceHandler.Update)
				r.Delete("/{id}", resourceHandler.Delete)
			})
		})
	})

	return r
}
