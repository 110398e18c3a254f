package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dunamis/faithhub/internal/auth"
	"github.com/dunamis/faithhub/internal/category"
	"github.com/dunamis/faithhub/internal/config"
	"github.com/dunamis/faithhub/internal/database"
	"github.com/dunamis/faithhub/internal/handler"
	"github.com/dunamis/faithhub/internal/importer"
	"github.com/dunamis/faithhub/internal/logger"
	"github.com/dunamis/faithhub/internal/metrics"
	"github.com/dunamis/faithhub/internal/middleware"
	"github.com/dunamis/faithhub/internal/repository"
	"github.com/dunamis/faithhub/internal/resource"
	"github.com/dunamis/faithhub/internal/security"
	"github.com/dunamis/faithhub/internal/seed"
	"github.com/dunamis/faithhub/internal/user"
)

const (
	dbConnectTimeout = 10 * time.Second
	shutdownTimeout  = 30 * time.Second

	// インポート時の再試行設定
	importMaxAttempts    = 3
	importInitialBackoff = 500 * time.Millisecond
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

	logger.SetLevel(cfg.LogLevel)
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
			port = "5000"
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
		slog.String("env", cfg.AppEnv),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// newRouter は全依存関係をワイヤリングしてHTTPハンドラーを構築する。
// 返却されるRateLimiterはシャットダウン時にStopすること。
func newRouter(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (http.Handler, *middleware.RateLimiter) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	categoryRepo := repository.NewPostgresCategoryRepo(db)
	resourceRepo := repository.NewPostgresResourceRepo(db)

	// 2. メトリクスとセキュリティサービスの初期化
	collector := metrics.NewCollector(reg)
	sanitizer := security.NewSanitizer()
	urlGuard := security.NewURLGuard()

	// 3. ドメインサービスの初期化
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.JWTRefreshSecret)
	authService := auth.NewService(userRepo, hasher, codec, auth.ServiceConfig{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}, collector)

	userService := user.NewService(userRepo, hasher)
	categoryService := category.NewService(categoryRepo, sanitizer)
	resourceService := resource.NewService(resourceRepo, sanitizer)
	feedImporter := importer.NewImporter(
		resourceRepo,
		urlGuard,
		urlGuard.NewSafeClient(cfg.ImportTimeout),
		sanitizer,
		collector,
		importer.Config{
			MaxBodySize:    cfg.ImportMaxSize,
			MaxAttempts:    importMaxAttempts,
			InitialBackoff: importInitialBackoff,
		},
	)

	// 4. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(
		cfg.RateLimitAuth, cfg.RateLimitAuthWindow, cfg.RateLimitGeneral,
	))

	deps := &handler.RouterDeps{
		Logger:             slog.Default(),
		Authenticator:      authService,
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		EnableHSTS:         !cfg.IsDevelopment(),
		CacheMaxAge:        cfg.CacheMaxAge,

		HealthChecker:  db,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),

		AuthService:     authService,
		UserService:     userService,
		CategoryService: categoryService,
		ResourceService: resourceService,
		FeedImporter:    feedImporter,
	}

	return handler.NewRouter(deps), rateLimiter
}

// newRegistry はプロセス・Goランタイムのコレクターを登録したレジストリを返す。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := database.Connect(context.Background(), cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	router, rateLimiter := newRouter(cfg, db, newRegistry())
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ImportTimeout*importMaxAttempts + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
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

// runSeed は既存データを削除し、管理者・カテゴリ・サンプルリソースを投入する。
func runSeed(cfg *config.Config) error {
	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DatabaseURL, dbConnectTimeout)
	if err != nil {
		return err
	}
	defer db.Close()

	seeder := seed.NewSeeder(db, auth.NewPasswordHasher(cfg.BcryptCost))
	if err := seeder.Run(ctx, seed.Admin{
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
		Name:     "Admin",
	}); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
