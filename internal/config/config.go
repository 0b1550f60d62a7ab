package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage driver names.
const (
	StorageLocal    = "local"
	StorageSupabase = "supabase"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	Timezone              string
	CORSOrigin            string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	RefreshSecret         string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	BcryptCost            int
	BootstrapAdminEmail   string
	BootstrapAdminPass    string
}

// StorageConfig selects and configures the object storage driver.
type StorageConfig struct {
	Driver           string
	LocalDir         string
	PublicBaseURL    string
	SignedURLTTLSecs int
	MaxFileMB        int
	SupabaseURL      string
	SupabaseKey      string
	SupabaseBucket   string
	AllowedMIMETypes []string
}

// RateLimitConfig bounds requests per client per minute.
type RateLimitConfig struct {
	APIPerMinute  int
	AuthPerMinute int
}

// WorkerConfig tunes background jobs.
type WorkerConfig struct {
	StatusRefreshIntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "icu-staff-records"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "4000"),
			Version:               getEnv("APP_VERSION", "dev"),
			Timezone:              getEnv("APP_TIMEZONE", "Asia/Riyadh"),
			CORSOrigin:            getEnv("CORS_ORIGIN", "http://localhost:5173"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			RefreshSecret:         getEnv("AUTH_REFRESH_SECRET", "dev-refresh-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 15),
			RefreshTokenTTLDays:   getEnvAsInt("AUTH_REFRESH_TOKEN_TTL_DAYS", 30),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapAdminEmail:   os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
			BootstrapAdminPass:    os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Storage: StorageConfig{
			Driver:           strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
			LocalDir:         getEnv("LOCAL_UPLOAD_DIR", "./uploads"),
			PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:4000"), "/"),
			SignedURLTTLSecs: getEnvAsInt("SIGNED_URL_TTL_SECONDS", 60),
			MaxFileMB:        getEnvAsInt("MAX_FILE_MB", 20),
			SupabaseURL:      strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
			SupabaseKey:      os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
			SupabaseBucket:   getEnv("SUPABASE_STORAGE_BUCKET", "staff-docs"),
			AllowedMIMETypes: []string{"application/pdf", "image/jpeg", "image/png"},
		},
		RateLimit: RateLimitConfig{
			APIPerMinute:  getEnvAsInt("RATE_LIMIT_API_PER_MINUTE", 300),
			AuthPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
		},
		Worker: WorkerConfig{
			StatusRefreshIntervalMinutes: getEnvAsInt("STATUS_REFRESH_INTERVAL_MINUTES", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	switch c.Storage.Driver {
	case StorageLocal:
	case StorageSupabase:
		if c.Storage.SupabaseURL == "" || c.Storage.SupabaseKey == "" {
			return fmt.Errorf("STORAGE_DRIVER=supabase requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.MaxFileMB <= 0 {
		return fmt.Errorf("MAX_FILE_MB must be positive")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the access token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh session lifetime.
func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

// MaxFileBytes returns the upload size limit in bytes.
func (s StorageConfig) MaxFileBytes() int64 {
	return int64(s.MaxFileMB) * 1024 * 1024
}

// SignedURLTTL returns the lifetime of signed download URLs.
func (s StorageConfig) SignedURLTTL() time.Duration {
	return time.Duration(s.SignedURLTTLSecs) * time.Second
}

// StatusRefreshInterval returns the refresh worker period.
func (w WorkerConfig) StatusRefreshInterval() time.Duration {
	return time.Duration(w.StatusRefreshIntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
