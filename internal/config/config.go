package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Port         string
	LogLevel     string
	ClientSecret string
	CookieSecure bool

	StorageBackend string
	DatabaseURL    string
	Redis          RedisConfig

	RandomUserURL   string
	ToastDuration   time.Duration
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CookieSecure:    getEnvAsBool("COOKIE_SECURE", false),
		StorageBackend:  strings.ToLower(getEnv("STORAGE_BACKEND", StorageMemory)),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RandomUserURL:   getEnv("RANDOM_USER_URL", "https://randomuser.me"),
		ToastDuration:   time.Duration(getEnvAsInt("TOAST_DURATION_MS", 4000)) * time.Millisecond,
		LoginRateLimit:  getEnvAsInt("LOGIN_RATE_LIMIT", 30),
		LoginRateWindow: getEnvAsDuration("LOGIN_RATE_WINDOW", 10*time.Minute),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	// Load CLIENT_SECRET (required)
	cfg.ClientSecret = os.Getenv("CLIENT_SECRET")
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("CLIENT_SECRET environment variable is required")
	}

	switch cfg.StorageBackend {
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for postgres storage")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	if _, err := url.ParseRequestURI(cfg.RandomUserURL); err != nil {
		return nil, fmt.Errorf("invalid RANDOM_USER_URL: %w", err)
	}

	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = 4 * time.Second
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
