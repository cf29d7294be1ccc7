// Package config loads the process-wide server configuration from the
// environment. The returned Config is set once at boot and treated as
// immutable for the life of the process.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Token lifetimes. Access tokens are always shorter-lived than refresh
	// tokens.
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	AuthCodeExpiration     time.Duration

	// RotateRefreshTokens controls whether a refresh-token exchange
	// invalidates the presented refresh token and issues a new one.
	RotateRefreshTokens bool

	// DefaultScopes applies to token and authorization requests that omit
	// the scope parameter.
	DefaultScopes []string

	// Database settings for the shipped relational store.
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Optional token-lookup cache for the resource server.
	CacheAddr      string // empty disables the redis cache
	CachePassword  string
	CacheDB        int
	CacheKeyPrefix string
	CacheTTL       time.Duration
}

// Load reads configuration from the environment, consulting a .env file when
// one exists.
func Load() *Config {
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "oauth.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", time.Hour),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 720*time.Hour),
		AuthCodeExpiration:     getEnvDuration("AUTH_CODE_EXPIRATION", 10*time.Minute),
		RotateRefreshTokens:    getEnvBool("ROTATE_REFRESH_TOKENS", true),
		DefaultScopes:          getEnvSlice("DEFAULT_SCOPES", nil),
		DatabaseDriver:         driver,
		DatabaseDSN:            dsn,
		CacheAddr:              getEnv("CACHE_ADDR", ""),
		CachePassword:          getEnv("CACHE_PASSWORD", ""),
		CacheDB:                getEnvInt("CACHE_DB", 0),
		CacheKeyPrefix:         getEnv("CACHE_KEY_PREFIX", "oauth:token:"),
		CacheTTL:               getEnvDuration("CACHE_TTL", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Fields(value)
	}
	return defaultValue
}
