package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "ipwboot.db", cfg.Store.SQLitePath)
	assert.Equal(t, 500, cfg.Estimate.Resamples)
	assert.True(t, cfg.Estimate.IncludeApparent)
	assert.Equal(t, "ate", cfg.Estimate.Estimand)
	assert.InDelta(t, 1e-6, cfg.Estimate.PropensityClip, 1e-12)
	assert.Equal(t, "skip", cfg.Estimate.FailurePolicy)
	assert.InDelta(t, 0.95, cfg.Estimate.ConfidenceLevel, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 50.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 100, cfg.Server.RateBurst)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/ipwboot
estimate:
  resamples: 2000
  estimand: att
  failure_policy: abort
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/ipwboot", cfg.Store.DatabaseURL)
	assert.Equal(t, 2000, cfg.Estimate.Resamples)
	assert.Equal(t, "att", cfg.Estimate.Estimand)
	assert.Equal(t, "abort", cfg.Estimate.FailurePolicy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Defaults still apply for keys the file omits.
	assert.True(t, cfg.Estimate.IncludeApparent)
	assert.InDelta(t, 0.95, cfg.Estimate.ConfidenceLevel, 0.001)
}

func TestWriteExample_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	require.NoError(t, WriteExample(filepath.Join(dir, "config.yaml")))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))

	err := InitLogger(LogConfig{Level: "not-a-level"})
	require.Error(t, err)
}
