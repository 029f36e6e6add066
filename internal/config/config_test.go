package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "confdash.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Header", cfg.HeaderSheet)
	assert.Equal(t, 80, cfg.DefaultThreshold)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confdash.yaml")

	cfg := DefaultConfig()
	cfg.SourceURL = "https://example.com/list.xlsx"
	cfg.DefaultThreshold = 65
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/list.xlsx", got.SourceURL)
	assert.Equal(t, 65, got.DefaultThreshold)
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	cfg := &Config{DefaultThreshold: 250}
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Header", cfg.HeaderSheet)
	assert.Equal(t, 80, cfg.DefaultThreshold, "out-of-range threshold resets to default")
	assert.Equal(t, "admin", cfg.Auth.Username)
}

func TestApplyEnvOverridesCredentials(t *testing.T) {
	t.Setenv("AUTH_USERNAME", "curator")
	t.Setenv("AUTH_PASSWORD", "s3cret")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "curator", cfg.Auth.Username)
	assert.Equal(t, "s3cret", cfg.Auth.Password)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
