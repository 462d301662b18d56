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

	assert.Equal(t, "approval-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 60, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 10*time.Second, cfg.Workflow.LockTTL())
	assert.True(t, cfg.Postgres.RunMigrations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("WORKFLOW_LOCK_TTL_SECONDS", "3")
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
	assert.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, 3*time.Second, cfg.Workflow.LockTTL())
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestDurationFallbacks(t *testing.T) {
	app := AppConfig{RequestTimeoutSeconds: 0}
	assert.Equal(t, time.Duration(0), app.RequestTimeout())

	wf := WorkflowConfig{LockTTLSeconds: -1}
	assert.Equal(t, 10*time.Second, wf.LockTTL())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))

	t.Setenv("SOME_BOOL", "definitely")
	assert.True(t, getEnvAsBool("SOME_BOOL", true))

	assert.Equal(t, "fallback", getEnv("UNSET_KEY_FOR_TEST", "fallback"))
}
