package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.API, cfg.API)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"local", "client", "metadata"}, cfg.Search.Sources)
	assert.Equal(t, 3*time.Second, cfg.UI.SuccessDismiss)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
api:
  base_url: https://suasor.example.com/api/v1
  timeout: 5s
cache:
  ttl: 1m
  max_entries: 500
search:
  sources: [local, metadata]
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://suasor.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, []string{"local", "metadata"}, cfg.Search.Sources)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Search.Limit, "unset keys keep defaults")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SUASOR_API_BASE_URL", "http://10.0.0.2:8080/api/v1")
	t.Setenv("SUASOR_CACHE_MAX_ENTRIES", "64")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:8080/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 64, cfg.Cache.MaxEntries)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://media.lan/api/v1"
	cfg.Cache.TTL = 90 * time.Second

	require.NoError(t, Save(cfg, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg.API.BaseURL, loaded.API.BaseURL)
	assert.Equal(t, cfg.Cache.TTL, loaded.Cache.TTL)
}

func TestInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [\n"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}
