package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port    string
	AppName string

	// Record store
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Audit store (empty disables the Postgres audit log)
	AuditDatabaseURL string

	// Repos
	ReposBasePath string
	GitBin        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "8080"),
		AppName: envOrDefault("APP_NAME", "gitstat"),

		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envOrDefaultInt("REDIS_DB", 0),

		AuditDatabaseURL: os.Getenv("AUDIT_DATABASE_URL"),

		ReposBasePath: envOrDefault("REPOS_BASE_PATH", defaultReposPath()),
		GitBin:        envOrDefault("GIT_BIN", "git"),
	}
}

// defaultReposPath is ~/git_repositories, falling back to a temp dir
// when the home directory cannot be resolved.
func defaultReposPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "git_repositories")
	}
	return filepath.Join(home, "git_repositories")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
