package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
	assert.Equal(t, 5*time.Second, cfg.Messages.TTL)
	assert.Zero(t, cfg.HTTP.Timeout)
	assert.NotEmpty(t, cfg.Session.TokenFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_TemplatesEnvironment(t *testing.T) {
	t.Setenv("ACTIVITIES_SERVER", "https://activities.example.com/")
	t.Setenv("ACTIVITIES_TOKEN_FILE", "/tmp/activities/storage.yaml")

	path := writeConfig(t, `
server:
  url: "{{ .ACTIVITIES_SERVER }}"
http:
  timeout: 30s
session:
  tokenFile: "{{ .ACTIVITIES_TOKEN_FILE }}"
messages:
  ttl: 2s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://activities.example.com", cfg.Server.URL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "/tmp/activities/storage.yaml", cfg.Session.TokenFile)
	assert.Equal(t, 2*time.Second, cfg.Messages.TTL)
}

func TestLoadConfig_MissingVariableFallsBackToDefault(t *testing.T) {
	path := writeConfig(t, `
server:
  url: "{{ .ACTIVITIES_UNSET_VARIABLE }}"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.Server.URL)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.URL = "localhost:8000"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HTTP.Timeout = -time.Second
	assert.Error(t, cfg.Validate())
}
