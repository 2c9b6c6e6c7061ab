package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Archive.Driver)
	assert.Equal(t, "leadgen.db", cfg.Archive.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.apollo.io", cfg.Apollo.BaseURL)
	assert.InDelta(t, 1.0, cfg.Apollo.RPS, 0.001)
	assert.Equal(t, "apollo", cfg.Acquire.Primary)
	assert.Equal(t, 3, cfg.Acquire.MaxParallel)
	assert.Equal(t, 120, cfg.Acquire.SourceTimeoutSecs)
	assert.True(t, cfg.Fingerprint.StripDiacritics)
	assert.False(t, cfg.Fingerprint.CollapseInitials)
}

func TestLoadFromYAML(t *testing.T) {
	chdirTemp(t)

	yaml := `
archive:
  driver: postgres
  database_url: postgres://localhost/leads
log:
  level: debug
  format: console
server:
  port: 9090
acquire:
  primary: webscrape
  backups:
    - adapter_id: csvdrop
      oversample: 2.5
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Archive.Driver)
	assert.Equal(t, "postgres://localhost/leads", cfg.Archive.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "webscrape", cfg.Acquire.Primary)
	require.Len(t, cfg.Acquire.Backups, 1)
	assert.Equal(t, "csvdrop", cfg.Acquire.Backups[0].AdapterID)
	assert.InDelta(t, 2.5, cfg.Acquire.Backups[0].Oversample, 0.001)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Acquire.MaxParallel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chdirTemp(t)

	yaml := `
archive:
  driver: postgres
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADGEN_ARCHIVE_DRIVER", "sqlite")
	t.Setenv("LEADGEN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Archive.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADGEN_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestSourceTimeout(t *testing.T) {
	cfg := AcquireConfig{SourceTimeoutSecs: 90}
	assert.Equal(t, "1m30s", cfg.SourceTimeout().String())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
