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
type Config struct {
	// Database
	DatabaseURL string

	// Token
	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int

	// Rate Limit
	RateLimitAuth       int
	RateLimitAuthWindow time.Duration
	RateLimitGeneral    int

	// Cache
	CacheMaxAge time.Duration

	// Import
	ImportTimeout time.Duration
	ImportMaxSize int64

	// Logging
	LogLevel string

	// Server
	ServerPort string
	AppEnv     string

	// CORS
	CORSAllowedOrigins []string

	// Seed
	SeedAdminEmail    string
	SeedAdminPassword string
}

// IsDevelopment は開発環境で起動しているかどうかを返す。
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
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

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	cfg.JWTRefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	if cfg.JWTRefreshSecret == "" {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// アクセストークンとリフレッシュトークンが同じ鍵で署名されると相互に流用できてしまう
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return nil, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// Optional fields with defaults
	cfg.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", time.Hour)
	cfg.RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.RateLimitAuth = getEnvInt("RATE_LIMIT_AUTH", 100)
	cfg.RateLimitAuthWindow = getEnvDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 300)
	cfg.CacheMaxAge = getEnvDuration("CACHE_MAX_AGE", 5*time.Minute)
	cfg.ImportTimeout = getEnvDuration("IMPORT_TIMEOUT", 10*time.Second)
	cfg.ImportMaxSize = getEnvInt64("IMPORT_MAX_SIZE", 5242880)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "5000")
	cfg.AppEnv = getEnvString("APP_ENV", "production")
	cfg.SeedAdminEmail = getEnvString("SEED_ADMIN_EMAIL", "admin@example.com")
	cfg.SeedAdminPassword = getEnvString("SEED_ADMIN_PASSWORD", "changeme123")

	origins := getEnvList("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:3000",
		"https://dunamisfaith.vercel.app",
	})
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		origins = appendUnique(origins, frontend)
	}
	cfg.CORSAllowedOrigins = origins

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate は期限・件数が0以下の設定を検出する。CacheMaxAgeのみ0を許可する。
func (c *Config) validate() error {
	var invalid []string

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"ACCESS_TOKEN_TTL", c.AccessTokenTTL},
		{"REFRESH_TOKEN_TTL", c.RefreshTokenTTL},
		{"RATE_LIMIT_AUTH_WINDOW", c.RateLimitAuthWindow},
		{"IMPORT_TIMEOUT", c.ImportTimeout},
	} {
		if d.value <= 0 {
			invalid = append(invalid, d.name)
		}
	}
	if c.RateLimitAuth <= 0 {
		invalid = append(invalid, "RATE_LIMIT_AUTH")
	}
	if c.RateLimitGeneral <= 0 {
		invalid = append(invalid, "RATE_LIMIT_GENERAL")
	}
	if c.ImportMaxSize <= 0 {
		invalid = append(invalid, "IMPORT_MAX_SIZE")
	}
	if c.CacheMaxAge < 0 {
		invalid = append(invalid, "CACHE_MAX_AGE")
	}

	if len(invalid) > 0 {
		return fmt.Errorf("environment variables are out of range: %v", invalid)
	}
	return nil
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

// getEnvList はカンマ区切りの環境変数をスライスとして読み込む。空要素は無視する。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = appendUnique(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
