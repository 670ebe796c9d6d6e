package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-0000"

// TestLoad_Defaults tests that defaults apply when only the secret is set
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "file:./warehouse.db", cfg.Database.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "0.0.0.0:8080", cfg.GetListenAddress())
}

// TestLoad_EnvOverride tests that environment variables win over defaults
func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("WAREHOUSE_HOST", "127.0.0.1")
	t.Setenv("WAREHOUSE_PORT", "9090")
	t.Setenv("DATABASE_URL", "file:/tmp/test.db")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file:/tmp/test.db", cfg.Database.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
}

// TestLoad_YAMLFile tests loading from a configuration file
func TestLoad_YAMLFile(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	path := filepath.Join(t.TempDir(), "warehouse.yaml")
	content := []byte("server:\n  host: 10.0.0.1\n  port: 8181\ndatabase:\n  debug: true\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.True(t, cfg.Database.Debug)
}

// TestLoad_EnvironmentFile tests loading KEY=VALUE files, with real
// environment variables taking precedence.
func TestLoad_EnvironmentFile(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	path := filepath.Join(t.TempDir(), ".env")
	content := []byte("WAREHOUSE_PORT=7070\nWAREHOUSE_HOST=\"192.168.1.1\"\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	// The loader exports file entries into the process environment
	t.Cleanup(func() {
		os.Unsetenv("WAREHOUSE_PORT")
		os.Unsetenv("WAREHOUSE_HOST")
	})

	cfg, err := Load("", path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "192.168.1.1", cfg.Server.Host)

	t.Setenv("WAREHOUSE_PORT", "6060")
	cfg, err = Load("", path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

// TestValidate tests the validation failure modes
func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
			Database: DatabaseConfig{Driver: "sqlite3", DSN: "file:./warehouse.db"},
			Auth:     AuthConfig{JWTSecretKey: testSecret, TokenTTL: time.Hour, BcryptCost: 10},
		}
	}

	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Auth.JWTSecretKey = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET_KEY environment variable is required")

	cfg = base()
	cfg.Auth.JWTSecretKey = "short"
	assert.ErrorContains(t, cfg.Validate(), "at least 32 characters")

	cfg = base()
	cfg.Database.DSN = ""
	assert.ErrorContains(t, cfg.Validate(), "database DSN is required")

	cfg = base()
	cfg.Server.Port = 0
	assert.ErrorContains(t, cfg.Validate(), "server port")

	cfg = base()
	cfg.Auth.TokenTTL = 0
	assert.ErrorContains(t, cfg.Validate(), "token TTL")
}

// TestLoad_MissingSecret tests that a missing secret fails the load
func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load("", "")
	require.Error(t, err)
}
