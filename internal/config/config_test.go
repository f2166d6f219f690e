package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/domain/lifecycle"
)

func TestLoad_DefaultsWithMemoryStorage(t *testing.T) {
	t.Setenv("PORTFOLIO_LIFECYCLE_STORAGE", "memory")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "portfolio", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.Lifecycle.RestorationWindow)
	assert.Equal(t, "best_effort", cfg.Lifecycle.AuditMode)
	assert.Equal(t, "is_deleted", cfg.Lifecycle.PurgeGuard)

	policy, err := cfg.Lifecycle.Policy()
	require.NoError(t, err)
	assert.Equal(t, lifecycle.AuditBestEffort, policy.AuditMode)
	assert.Equal(t, lifecycle.RequireSoftDeleted, policy.PurgeGuard.Expression())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORTFOLIO_DATABASE_URL", "postgres://localhost/portfolio")
	t.Setenv("PORTFOLIO_LIFECYCLE_RESTORATION_WINDOW", "168h")
	t.Setenv("PORTFOLIO_LIFECYCLE_AUDIT_MODE", "transactional")
	t.Setenv("PORTFOLIO_SERVER_PORT", "9090")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/portfolio", cfg.Database.URL)
	assert.Equal(t, 7*24*time.Hour, cfg.Lifecycle.RestorationWindow)
	assert.Equal(t, "transactional", cfg.Lifecycle.AuditMode)
	assert.Equal(t, ":9090", cfg.Server.Addr())
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: production
lifecycle:
  storage: memory
  restoration_window: 72h
  purge_guard: "is_deleted && expired"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, 72*time.Hour, cfg.Lifecycle.RestorationWindow)
	assert.Equal(t, "is_deleted && expired", cfg.Lifecycle.PurgeGuard)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"postgres without url": {"PORTFOLIO_LIFECYCLE_STORAGE": "postgres"},
		"unknown storage":      {"PORTFOLIO_LIFECYCLE_STORAGE": "redis"},
		"bad audit mode":       {"PORTFOLIO_LIFECYCLE_STORAGE": "memory", "PORTFOLIO_LIFECYCLE_AUDIT_MODE": "sometimes"},
		"bad purge guard":      {"PORTFOLIO_LIFECYCLE_STORAGE": "memory", "PORTFOLIO_LIFECYCLE_PURGE_GUARD": "is_deleted +"},
		"zero window":          {"PORTFOLIO_LIFECYCLE_STORAGE": "memory", "PORTFOLIO_LIFECYCLE_RESTORATION_WINDOW": "0s"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			t.Chdir(t.TempDir())

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadWith_FlagOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	v := viper.New()
	v.Set("lifecycle.storage", "memory")
	v.Set("lifecycle.restoration_window", "1h")

	cfg, err := LoadWith(v, "")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Lifecycle.RestorationWindow)
}
