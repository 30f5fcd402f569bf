package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Sync.PollInterval)
	assert.Equal(t, "0.0.0.0:8090", cfg.Display.Addr())
	assert.Equal(t, []string{"*"}, cfg.Display.AllowedOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("EMR_API_URL", "https://emr.example.org/")
	t.Setenv("EMR_API_TOKEN", "secret")
	t.Setenv("CLINIC_ID", "clinic-1")
	t.Setenv("SYNC_POLL_INTERVAL", "5s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://emr.example.org", cfg.API.BaseURL)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, "clinic-1", cfg.Clinic.ID)
	assert.Equal(t, 5*time.Second, cfg.Sync.PollInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Display.AllowedOrigins)
}

func TestLoadFrom_OverridesAndValidation(t *testing.T) {
	t.Run("explicit value wins", func(t *testing.T) {
		v := viper.New()
		v.Set("CLINIC_ID", "from-flag")
		cfg, err := LoadFrom(v)
		require.NoError(t, err)
		assert.Equal(t, "from-flag", cfg.Clinic.ID)
	})

	t.Run("non-positive interval rejected", func(t *testing.T) {
		v := viper.New()
		v.Set("SYNC_POLL_INTERVAL", "0s")
		_, err := LoadFrom(v)
		assert.Error(t, err)
	})
}
