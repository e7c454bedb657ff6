package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "gitstat", cfg.AppName)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "git", cfg.GitBin)
	assert.NotEmpty(t, cfg.ReposBasePath)
	assert.Empty(t, cfg.AuditDatabaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REPOS_BASE_PATH", "/srv/repos")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "/srv/repos", cfg.ReposBasePath)
}

func TestLoadIgnoresBadInt(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()
	assert.Equal(t, 0, cfg.RedisDB)
}
