package slooze

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestLoadConfigDefaults tests loading without a file
func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DefaultPoolConfig(), cfg.Database.Pool)
}

// TestLoadConfigFile tests YAML parsing over defaults
func TestLoadConfigFile(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvLogLevel, "")

	path := writeConfig(t, `
server:
  addr: ":9090"
  shutdown_timeout: 30s
database:
  url: postgres://localhost/slooze
  pool:
    max_open_connections: 50
    connection_max_lifetime: 1h
auth:
  jwt_secret: s3cret
  issuer: slooze
log:
  level: debug
seed: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres://localhost/slooze", cfg.Database.URL)
	assert.Equal(t, 50, cfg.Database.Pool.MaxOpenConnections)
	assert.Equal(t, time.Hour, cfg.Database.Pool.ConnectionMaxLifetime)
	assert.Equal(t, DefaultPoolConfig().MaxIdleConnections, cfg.Database.Pool.MaxIdleConnections)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "slooze", cfg.Auth.Issuer)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Seed)
	assert.True(t, cfg.Metrics.Enabled)
}

// TestLoadConfigEnvOverrides tests that the environment wins over the file
func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file\nauth:\n  jwt_secret: from-file\n")

	t.Setenv(EnvDatabaseURL, "postgres://env")
	t.Setenv(EnvJWTSecret, "from-env")
	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

// TestLoadConfigErrors tests rejection of bad configuration
func TestLoadConfigErrors(t *testing.T) {
	t.Setenv(EnvAddr, "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "server:\n  adr: typo\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = LoadConfig(writeConfig(t, "metrics:\n  enabled: true\n  path: metrics\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "server:\n  shutdown_timeout: 0s\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "log:\n  format: xml\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "server:\n  trusted_proxies: [\"10.0.0.0/33\"]\n"))
	assert.Error(t, err)
}

// TestLoadConfigEmptyFile tests that an empty file yields defaults
func TestLoadConfigEmptyFile(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}
