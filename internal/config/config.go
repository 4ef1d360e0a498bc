package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable via STORAGE_BACKEND
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendKV    = "kv"
)

// Development fallbacks. Load refuses them in production.
const (
	defaultJWTSecret  = "dev-only-jwt-secret-change-me-please"
	defaultAccessCode = "svatba2025"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Log       LogConfig

	// Warnings lists insecure fallbacks that were applied; main logs them.
	Warnings []string
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret           string
	AdminAccessCode     string
	SessionDuration     time.Duration
	CookieDomain        string
	CookieSecure        bool
	TimingDelayBaseMs   int
	TimingDelayRandomMs int
}

type StorageConfig struct {
	Backend         string
	DataDir         string
	CleanupInterval time.Duration
}

type RedisConfig struct {
	URL string
}

type DatabaseConfig struct {
	URL               string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type RateLimitConfig struct {
	MaxAttempts            int
	Window                 time.Duration
	LoginRequestsPerMinute int
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	NotifyTo    []string
}

// Enabled reports whether new-RSVP notifications should be sent.
func (c EmailConfig) Enabled() bool {
	return c.FromAddress != "" && len(c.NotifyTo) > 0
}

type LogConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")
	production := env == "production"

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("JWT_SECRET", ""),
			AdminAccessCode:     getEnv("ADMIN_ACCESS_CODE", ""),
			SessionDuration:     24 * time.Hour,
			CookieDomain:        getEnv("COOKIE_DOMAIN", ""),
			CookieSecure:        production,
			TimingDelayBaseMs:   getEnvAsInt("LOGIN_DELAY_BASE_MS", 300),
			TimingDelayRandomMs: getEnvAsInt("LOGIN_DELAY_RANDOM_MS", 200),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(getEnv("STORAGE_BACKEND", BackendFile)),
			DataDir:         getEnv("DATA_DIR", "./data"),
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "svatba"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 5)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 1)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:            getEnvAsInt("RATE_LIMIT_MAX_ATTEMPTS", 3),
			Window:                 getEnvAsDuration("RATE_LIMIT_WINDOW", 1*time.Hour),
			LoginRequestsPerMinute: getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 5),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "eu-central-1"),
			FromAddress: getEnv("EMAIL_FROM", ""),
			NotifyTo:    getEnvAsList("NOTIFY_EMAIL_TO"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	switch cfg.Storage.Backend {
	case BackendFile, BackendRedis, BackendKV:
	default:
		return nil, fmt.Errorf("STORAGE_BACKEND must be one of %q, %q, %q (got %q)",
			BackendFile, BackendRedis, BackendKV, cfg.Storage.Backend)
	}

	if cfg.Storage.Backend == BackendKV && cfg.Database.URL == "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required for the kv storage backend")
	}

	if cfg.RateLimit.MaxAttempts < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be at least 1")
	}

	if cfg.Auth.JWTSecret == "" {
		if production {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.Auth.JWTSecret = defaultJWTSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure development default")
	}

	if cfg.Auth.AdminAccessCode == "" {
		if production {
			return nil, fmt.Errorf("ADMIN_ACCESS_CODE is required")
		}
		cfg.Auth.AdminAccessCode = defaultAccessCode
		cfg.Warnings = append(cfg.Warnings, "ADMIN_ACCESS_CODE not set, using insecure development default")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(cfg.Auth.JWTSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	// Minimum length based on environment
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
		if secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET cannot be the development default in production")
		}
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	// Check against common weak secrets
	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value string.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		origins := getEnvAsList("ALLOWED_ORIGINS")
		if origins == nil {
			return []string{} // Default to no origins in production
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
