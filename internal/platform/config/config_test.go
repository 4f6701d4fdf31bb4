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
	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Issuer.AuthCodeTTL)
	assert.Equal(t, time.Hour, cfg.Issuer.AccessTokenTTL)
	assert.Equal(t, MinVendorSessionTTLDays, cfg.Vendor.SessionTTLDays)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("VENDOR_SESSION_TTL_DAYS", "3")

	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Issuer.AccessTokenTTL)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, MinVendorSessionTTLDays, cfg.Vendor.SessionTTLDays, "ttl below the vendor minimum is raised")
	assert.Equal(t, 240*time.Hour, cfg.Vendor.SessionTTL())
}

func TestLoadReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ISSUER=https://review.f2f.example\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://review.f2f.example", cfg.Issuer.ID)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
}

func TestLoadRejectsInvalidStore(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "dynamo")
		_, err := load("")
		assert.ErrorContains(t, err, "unknown SESSION_STORE")
	})

	t.Run("postgres without url", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "postgres")
		_, err := load("")
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("memory in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := load("")
		assert.Error(t, err)
	})
}

func TestTrustedProxyList(t *testing.T) {
	assert.Nil(t, Server{}.TrustedProxyList())
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, Server{TrustedProxies: "10.0.0.0/8,172.16.0.0/12"}.TrustedProxyList())
}
