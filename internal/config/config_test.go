package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dutycalc/internal/config"
	"dutycalc/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "10", cfg.Engine.GSTRate.String())
	assert.Equal(t, "1000.00", cfg.Engine.GSTThreshold.StringFixed(2))
	assert.Equal(t, domain.StoreErrorDegrade, cfg.Engine.StoreErrorMode)
	assert.True(t, cfg.Engine.ConcurrentLookups)
	assert.Equal(t, 5, cfg.Batch.Concurrency)
	assert.Equal(t, 100, cfg.Batch.MaxItems)
	assert.False(t, cfg.JWT.Enabled())
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DUTYCALC_ENGINE_STORE_ERROR_MODE", "PROPAGATE")
	t.Setenv("DUTYCALC_ENGINE_GST_RATE", "12.5")
	t.Setenv("DUTYCALC_ENGINE_CONCURRENT_LOOKUPS", "false")
	t.Setenv("DUTYCALC_BATCH_CONCURRENCY", "2")
	t.Setenv("DUTYCALC_JWT_SECRET", "s3cret")
	t.Setenv("DUTYCALC_CORS_ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.StoreErrorPropagate, cfg.Engine.StoreErrorMode)
	assert.Equal(t, "12.5", cfg.Engine.GSTRate.String())
	assert.False(t, cfg.Engine.ConcurrentLookups)
	assert.Equal(t, 2, cfg.Batch.Concurrency)
	assert.True(t, cfg.JWT.Enabled())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PlatformPort(t *testing.T) {
	t.Setenv("PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Port)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"unknown store error mode", "DUTYCALC_ENGINE_STORE_ERROR_MODE", "ignore"},
		{"non-numeric gst rate", "DUTYCALC_ENGINE_GST_RATE", "ten"},
		{"negative threshold", "DUTYCALC_ENGINE_GST_THRESHOLD", "-1"},
		{"zero batch concurrency", "DUTYCALC_BATCH_CONCURRENCY", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			cfg, err := config.Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "tariff", SSLMode: "require"}
	assert.Equal(t, "postgres://u:p@db:5433/tariff?sslmode=require", db.DSN())
}
