// Package config loads application configuration from environment variables
// with sensible defaults.
package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Statement StatementConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string
}

// StatementConfig holds aggregation policy configuration.
type StatementConfig struct {
	// IncludeOtherInActivity folds adjustment/transfer/fee/other transaction
	// amounts into the activity balance instead of only counting them.
	IncludeOtherInActivity bool
	DefaultCurrency        string
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "statements.db"),
		},
		Statement: StatementConfig{
			IncludeOtherInActivity: getEnvBool("INCLUDE_OTHER_IN_ACTIVITY", false),
			DefaultCurrency:        getEnv("DEFAULT_CURRENCY", "usd"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
