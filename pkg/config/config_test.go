package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BATCHREG_TOKEN_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseType)
	assert.Equal(t, time.Hour, cfg.TokenLifetime)
	assert.Equal(t, "http://localhost:3000", cfg.ClientOrigin)
	assert.Equal(t, 256, cfg.AuditQueueSize)
	assert.Equal(t, 90, cfg.AuditRetentionDays)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BATCHREG_TOKEN_SECRET", "test-secret")
	t.Setenv("BATCHREG_LISTEN_ADDR", ":9090")
	t.Setenv("BATCHREG_DATABASE_TYPE", "postgres")
	t.Setenv("BATCHREG_TOKEN_LIFETIME", "30m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.DatabaseType)
	assert.Equal(t, 30*time.Minute, cfg.TokenLifetime)
}

// Keys with no default of their own still have to resolve from the
// environment alone.
func TestLoad_EnvOnlyKeys(t *testing.T) {
	t.Setenv("BATCHREG_TOKEN_SECRET", "env-secret")
	t.Setenv("BATCHREG_PUBLIC_BASE_URL", "https://batches.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.TokenSecret)
	assert.Equal(t, "https://batches.example.com", cfg.PublicBaseURL)
}

func TestLoad_MissingTokenSecret(t *testing.T) {
	t.Setenv("BATCHREG_TOKEN_SECRET", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "token_secret")
}

func TestLoad_File(t *testing.T) {
	t.Setenv("BATCHREG_TOKEN_SECRET", "test-secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":7070\"\naudit_queue_size: 512\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, 512, cfg.AuditQueueSize)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("BATCHREG_TOKEN_SECRET", "test-secret")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DatabaseType:   "sqlite",
		TokenSecret:    "s",
		TokenLifetime:  time.Hour,
		AuditQueueSize: 16,
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing token secret", func(t *testing.T) {
		cfg := valid
		cfg.TokenSecret = ""
		assert.ErrorContains(t, cfg.Validate(), "token_secret")
	})

	t.Run("unsupported database type", func(t *testing.T) {
		cfg := valid
		cfg.DatabaseType = "oracle"
		assert.ErrorContains(t, cfg.Validate(), "database_type")
	})

	t.Run("non-positive lifetime", func(t *testing.T) {
		cfg := valid
		cfg.TokenLifetime = 0
		assert.ErrorContains(t, cfg.Validate(), "token_lifetime")
	})

	t.Run("non-positive queue size", func(t *testing.T) {
		cfg := valid
		cfg.AuditQueueSize = 0
		assert.ErrorContains(t, cfg.Validate(), "audit_queue_size")
	})
}
