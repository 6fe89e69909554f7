package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")
	t.Setenv("STORAGE_ALLOWED_MIME", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legal-aid-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "dev-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"application/pdf", "image/jpeg", "image/png"}, cfg.Storage.AllowedMIMEs)
	assert.Equal(t, int64(10<<20), cfg.Storage.MaxUploadBytes())
	assert.Equal(t, 24*time.Hour, cfg.Reminder.Window())
	assert.Equal(t, "legal-aid:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 5, cfg.Postgres.ConnectRetries)
	assert.Equal(t, 2, cfg.Notification.Workers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("STORAGE_ALLOWED_MIME", "application/pdf, text/plain ,")
	t.Setenv("ASSIGNMENT_LOCK_TTL_SECONDS", "3")
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, []string{"application/pdf", "text/plain"}, cfg.Storage.AllowedMIMEs)
	assert.Equal(t, 3*time.Second, cfg.Assignment.LockTTL())
	assert.Equal(t, 300*time.Second, cfg.Reports.CacheTTL())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.Error(t, err)
}
