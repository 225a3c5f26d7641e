package rangecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rangecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
BaseDirectory: /var/cache/ranges
MaxCachedEntries: 32
CacheTTL: 90s
MaxInFlightBytes: 4096
Log:
  Level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/ranges", cfg.BaseDirectory)
	assert.Equal(t, 32, cfg.MaxCachedEntries)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, int64(4096), cfg.MaxInFlightBytes)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "BaseDirectory: /var/cache/ranges\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.MaxCachedEntries)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	assert.Equal(t, int64(128<<20), cfg.MaxInFlightBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.Log.MaxSize)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RANGECACHE_MAXCACHEDENTRIES", "7")
	t.Setenv("RANGECACHE_LOG_LEVEL", "warn")

	path := writeConfigFile(t, "BaseDirectory: /var/cache/ranges\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxCachedEntries)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigRelativeBaseDirectory(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, "BaseDirectory: ./ranges\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(cfg.BaseDirectory))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		BaseDirectory:    "/var/cache/ranges",
		MaxCachedEntries: 1,
		CacheTTL:         time.Second,
		MaxInFlightBytes: 0,
	}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Config){
		"empty base directory":  func(c *Config) { c.BaseDirectory = " " },
		"zero entries":          func(c *Config) { c.MaxCachedEntries = 0 },
		"negative ttl":          func(c *Config) { c.CacheTTL = -time.Second },
		"negative inflight max": func(c *Config) { c.MaxInFlightBytes = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
