package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMainConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))

	path := writeConfig(t, "")
	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "./data/store.json", cfg.StorePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 50, cfg.MinConfidence)
	assert.Equal(t, 100, cfg.MaxScanRows)
}

func TestLoadMainConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))

	path := writeConfig(t, `
input_dir: ./incoming
store_path: ./db/state.json
log_level: debug
max_concurrency: 2
min_confidence: 70
`)
	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./incoming", cfg.InputDir)
	assert.Equal(t, "./db/state.json", cfg.StorePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, 70, cfg.MinConfidence)
}

func TestLoadMainConfigInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, "log_level: loud\n")
	_, err := LoadMainConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestLoadMainConfigInvalidConfidence(t *testing.T) {
	path := writeConfig(t, "min_confidence: 140\n")
	_, err := LoadMainConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_confidence")
}

func TestLoadMainConfigMissingFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, 50, cfg.MinConfidence)
}
