package config_test

import (
	"testing"
	"time"

	"reviewflow/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvConfig_Defaults(t *testing.T) {
	t.Setenv("APP_STORAGE", "memory")

	cfg, err := config.NewEnvConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, config.StorageMemory, cfg.Storage)
	assert.Equal(t, 10*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, "file://migrations", cfg.Database.MigrationsPath)
}

func TestNewEnvConfig_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_STORAGE", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("AUTH_JWT_SECRET", "jwt")
	t.Setenv("RECONCILE_INTERVAL", "30s")

	cfg, err := config.NewEnvConfig()

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "jwt", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Second, cfg.Reconcile.Interval)
	assert.Contains(t, cfg.Database.DSN(), "host=db")
	assert.Contains(t, cfg.Database.MigrateURL(), "postgres:secret@db:5432")
}

func TestNewEnvConfig_UnknownStorage(t *testing.T) {
	t.Setenv("APP_STORAGE", "redis")

	_, err := config.NewEnvConfig()

	assert.Error(t, err)
}
