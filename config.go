package rangecache

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings for a [Manager].
type Config struct {
	// BaseDirectory is the filesystem path where cache files live. It is
	// created if missing; any pre-existing regular files inside it are
	// purged on startup.
	BaseDirectory string `mapstructure:"BaseDirectory"`

	// MaxCachedEntries bounds the number of remote paths with live cache
	// state. The least recently accessed path is evicted beyond this.
	MaxCachedEntries int `mapstructure:"MaxCachedEntries"`

	// CacheTTL evicts a remote path after this long without a Get or Put
	// touching it.
	CacheTTL time.Duration `mapstructure:"CacheTTL"`

	// MaxInFlightBytes bounds the memory retained by admitted but not
	// yet flushed writes. Puts that would reach the bound are dropped.
	MaxInFlightBytes int64 `mapstructure:"MaxInFlightBytes"`

	// Log configures the logger built by InitLogger. The Manager itself
	// only consumes a *logrus.Logger via WithLogger.
	Log LogConfig `mapstructure:"Log"`
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseDirectory) == "" {
		return fmt.Errorf("%w: BaseDirectory is empty", ErrInvalidConfig)
	}
	if c.MaxCachedEntries <= 0 {
		return fmt.Errorf("%w: MaxCachedEntries must be positive, got %d", ErrInvalidConfig, c.MaxCachedEntries)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("%w: CacheTTL must be positive, got %s", ErrInvalidConfig, c.CacheTTL)
	}
	if c.MaxInFlightBytes < 0 {
		return fmt.Errorf("%w: MaxInFlightBytes is negative, got %d", ErrInvalidConfig, c.MaxInFlightBytes)
	}
	return nil
}

// LoadConfig reads a Config from the file at path, applying defaults and
// RANGECACHE_* environment overrides.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("RANGECACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	abs, err := filepath.Abs(cfg.BaseDirectory)
	if err != nil {
		return Config{}, fmt.Errorf("resolve base directory: %w", err)
	}
	cfg.BaseDirectory = abs

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MaxCachedEntries", 1024)
	v.SetDefault("CacheTTL", "2h")
	v.SetDefault("MaxInFlightBytes", 128<<20)
	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.MaxSize", 100)
	v.SetDefault("Log.MaxBackups", 10)
	v.SetDefault("Log.Compress", true)
}
