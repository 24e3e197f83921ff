package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/prompt-relay/internal/credential"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("", nil, environ())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4000", cfg.Server.Addr())
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Upstream.BaseURL)
	assert.Equal(t, "gemini-2.5-flash-preview-05-20", cfg.Upstream.Model)
	assert.Zero(t, cfg.Upstream.Timeout)
	assert.Equal(t, CredentialStorageTypeEnv, cfg.Auth.Storage)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Auth.EnvVar)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "none", cfg.Log.Exporter)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 8080

[upstream]
model = "file-model"
timeout = "30s"

[log]
level = "debug"
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := LoadConfig(path, nil, environ())
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "file-model", cfg.Upstream.Model)
		assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("env overrides file", func(t *testing.T) {
		cfg, err := LoadConfig(path, nil, environ(
			"RELAY_SERVER__PORT=9090",
			"RELAY_UPSTREAM__MODEL=env-model",
			"UPSTREAM__MODEL=ignored",
		))
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "env-model", cfg.Upstream.Model)
		assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	})

	t.Run("overrides win", func(t *testing.T) {
		cfg, err := LoadConfig(path, map[string]any{"upstream.model": "flag-model"}, environ(
			"RELAY_UPSTREAM__MODEL=env-model",
		))
		require.NoError(t, err)
		assert.Equal(t, "flag-model", cfg.Upstream.Model)
	})
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		overrides map[string]any
		env       []string
	}{
		{name: "missing file", path: filepath.Join(t.TempDir(), "missing.toml")},
		{name: "unknown storage", overrides: map[string]any{"auth.storage": "vault"}},
		{name: "file storage without path", overrides: map[string]any{"auth.storage": "file"}},
		{name: "relative base URL", env: []string{"RELAY_UPSTREAM__BASE_URL=/v1beta"}},
		{name: "empty model", overrides: map[string]any{"upstream.model": ""}},
		{name: "port out of range", overrides: map[string]any{"server.port": 70000}},
		{name: "unknown log format", overrides: map[string]any{"log.format": "xml"}},
		{name: "unknown exporter", overrides: map[string]any{"log.exporter": "zipkin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path, tt.overrides, environ(tt.env...))
			assert.Error(t, err)
		})
	}
}

func TestNewCredentialStore(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "MY_KEY" {
			return "from-env", true
		}
		return "", false
	}

	t.Run("env", func(t *testing.T) {
		store, err := AuthConfig{Storage: CredentialStorageTypeEnv, EnvVar: "MY_KEY"}.NewCredentialStore(lookup)
		require.NoError(t, err)
		assert.IsType(t, &credential.EnvSource{}, store)

		key, err := store.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "from-env", key)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key")
		store, err := AuthConfig{Storage: CredentialStorageTypeFile, File: path}.NewCredentialStore(lookup)
		require.NoError(t, err)
		assert.IsType(t, &credential.FileStore{}, store)
	})

	t.Run("keyring", func(t *testing.T) {
		store, err := AuthConfig{
			Storage:        CredentialStorageTypeKeyring,
			KeyringService: credential.DefaultKeyringService,
			KeyringUser:    credential.DefaultKeyringUser,
		}.NewCredentialStore(lookup)
		require.NoError(t, err)
		assert.IsType(t, &credential.KeyringStore{}, store)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := AuthConfig{Storage: "vault"}.NewCredentialStore(lookup)
		assert.Error(t, err)
	})
}

func TestRelayConfig(t *testing.T) {
	cfg, err := LoadConfig("", map[string]any{"upstream.timeout": "5s"}, environ())
	require.NoError(t, err)

	rc := cfg.RelayConfig("key")
	assert.Equal(t, "key", rc.APIKey)
	assert.Equal(t, cfg.Upstream.BaseURL, rc.BaseURL)
	assert.Equal(t, cfg.Upstream.Model, rc.Model)
	assert.Equal(t, 5*time.Second, rc.Timeout)
}
