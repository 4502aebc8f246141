package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// MinSecretLength is the smallest accepted signing secret, in bytes (256 bits).
const MinSecretLength = 32

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Seed     SeedConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. The access token lifetime is
// fixed by the auth package and intentionally absent here.
type AuthConfig struct {
	JWTSecret              string
	JWTKeyID               string
	BcryptCost             int
	RevocationPurgeSeconds int
	LoginThrottleEnabled   bool
	LoginMaxAttempts       int
	LoginCooldownSeconds   int
}

// SeedConfig describes the accounts created at startup when missing.
type SeedConfig struct {
	Enabled       bool
	AdminEmail    string
	AdminPassword string
	UserEmail     string
	UserPassword  string
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
			Name:                  getEnv("APP_NAME", "auth-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("AUTH_JWT_SECRET", "dev-secret-change-me-0123456789abcdef0123456789abcdef"),
			JWTKeyID:               getEnv("AUTH_JWT_KEY_ID", "primary"),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			RevocationPurgeSeconds: getEnvAsInt("AUTH_REVOCATION_PURGE_SECONDS", 60),
			LoginThrottleEnabled:   getEnvAsBool("AUTH_LOGIN_THROTTLE_ENABLED", true),
			LoginMaxAttempts:       getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginCooldownSeconds:   getEnvAsInt("AUTH_LOGIN_COOLDOWN_SECONDS", 300),
		},
		Seed: SeedConfig{
			Enabled:       getEnvAsBool("SEED_DEFAULT_USERS", true),
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
			UserEmail:     getEnv("SEED_USER_EMAIL", "user@example.com"),
			UserPassword:  getEnv("SEED_USER_PASSWORD", "user123"),
		},
	}

	if len(cfg.Auth.JWTSecret) < MinSecretLength {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", MinSecretLength)
	}

	return cfg, nil
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

// RevocationPurgeInterval returns how often expired revocations are dropped.
func (a AuthConfig) RevocationPurgeInterval() time.Duration {
	if a.RevocationPurgeSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(a.RevocationPurgeSeconds) * time.Second
}

// LoginCooldown returns the failed-login counting window.
func (a AuthConfig) LoginCooldown() time.Duration {
	if a.LoginCooldownSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.LoginCooldownSeconds) * time.Second
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
