package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "http://localhost:8080", cfg.ToolBaseURL)
	assert.Equal(t, 15*time.Second, cfg.ToolTimeout)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("YELPNAV_MODEL", "gpt-4o")
	t.Setenv("YELPNAV_TOOL_URL", "https://tools.internal:9000")
	t.Setenv("YELPNAV_STORE", StoreSqlite)
	t.Setenv("YELPNAV_SQLITE_PATH", "/tmp/nav.db")
	t.Setenv("YELPNAV_REDIS_TTL", "24h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "https://tools.internal:9000", cfg.ToolBaseURL)
	assert.Equal(t, StoreSqlite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/nav.db", cfg.SqlitePath)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("YELPNAV_STORE", "etcd")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func TestLoadRequiresPostgresDSN(t *testing.T) {
	t.Setenv("YELPNAV_STORE", StorePostgres)
	t.Setenv("YELPNAV_POSTGRES_DSN", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YELPNAV_POSTGRES_DSN")
}
