package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp 切換到空目錄，避免讀到專案的 .env
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "", cfg.Knowledge.Path)
	assert.True(t, cfg.Product.Enabled)
	assert.Equal(t, "https://world.openfoodfacts.org", cfg.Product.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Product.Timeout)
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 50, cfg.Batch.MaxItems)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9090")
	t.Setenv("KNOWLEDGE_PATH", "/etc/kb.yaml")
	t.Setenv("PRODUCT_LOOKUP_ENABLED", "false")
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("APP_APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/etc/kb.yaml", cfg.Knowledge.Path)
	assert.False(t, cfg.Product.Enabled)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "production", cfg.App.Env)
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BATCH_MAX_ITEMS=7\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BATCH_MAX_ITEMS") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Batch.MaxItems)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "PORT", "70000"},
		{"zero workers", "BATCH_WORKERS", "0"},
		{"zero batch items", "BATCH_MAX_ITEMS", "0"},
		{"zero rate limit", "RATE_LIMIT_REQUESTS", "0"},
		{"empty product url", "PRODUCT_BASE_URL", " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestSummaryMasksPassword(t *testing.T) {
	cfg := &Config{Cache: CacheConfig{RedisPassword: "supersecret"}}

	summary := cfg.Summary()
	assert.Equal(t, "su...et", summary["redis_password"])
	assert.Equal(t, "****", maskSecret(""))
}
