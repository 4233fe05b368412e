package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, ":3000", cfg.ListenAddr())
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, KeyStoreMemory, cfg.VAPID.Store)
	assert.Equal(t, "mailto:example@example.com", cfg.VAPID.Subject)
	assert.True(t, cfg.VAPID.LogPrivateKey)
	assert.Equal(t, 10*time.Second, cfg.Delivery.Timeout)
	assert.Equal(t, 2419200, cfg.Delivery.TTL)
	assert.True(t, cfg.Delivery.PruneGone)
}

func TestLoadPortFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.HTTP.Port)
	assert.Equal(t, ":8081", cfg.ListenAddr())
}

func TestLoadPrefixedEnv(t *testing.T) {
	t.Setenv("PUSH_RELAY_DELIVERY_TIMEOUT", "3s")
	t.Setenv("PUSH_RELAY_DELIVERY_PRUNE_GONE", "false")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Delivery.Timeout)
	assert.False(t, cfg.Delivery.PruneGone)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
http:
  addr: "127.0.0.1:9000"
vapid:
  store: bolt
  log_private_key: false
storage:
  path: /tmp/relay.db
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
	assert.Equal(t, KeyStoreBolt, cfg.VAPID.Store)
	assert.False(t, cfg.VAPID.LogPrivateKey)
	assert.Equal(t, "/tmp/relay.db", cfg.Storage.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown store", env: map[string]string{"PUSH_RELAY_VAPID_STORE": "vault"}},
		{name: "half a key pair", env: map[string]string{"PUSH_RELAY_VAPID_PUBLIC_KEY": "abc"}},
		{name: "bad port", env: map[string]string{"PORT": "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			assert.Error(t, err)
		})
	}
}
