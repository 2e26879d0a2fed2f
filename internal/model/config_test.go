package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSec)
	assert.Equal(t, 50, cfg.Mail.PageSize)
	assert.Equal(t, 30, cfg.Mail.UnreadPollSec)
	assert.False(t, cfg.IMAP.Enabled)
	assert.Equal(t, "993", cfg.IMAP.Port)
	assert.True(t, cfg.IMAP.TLS)
	assert.Equal(t, "default", cfg.Display.Theme)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://workspace.example.com
mail:
  page_size: 25
imap:
  enabled: true
  host: imap.example.com
  username: user@example.com
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://workspace.example.com", cfg.API.BaseURL)
	assert.Equal(t, 25, cfg.Mail.PageSize)
	assert.True(t, cfg.IMAP.Enabled)
	assert.Equal(t, "imap.example.com", cfg.IMAP.Host)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 30, cfg.API.TimeoutSec)
	assert.Equal(t, 30, cfg.Mail.UnreadPollSec)
	assert.Equal(t, "993", cfg.IMAP.Port)
}

func TestLoadConfigRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [not: valid"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.API.BaseURL = "https://workspace.example.com"
	cfg.Mail.PageSize = 10
	cfg.Display.Theme = "dark"
	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://workspace.example.com", got.API.BaseURL)
	assert.Equal(t, 10, got.Mail.PageSize)
	assert.Equal(t, "dark", got.Display.Theme)
}
