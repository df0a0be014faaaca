// Package config loads application configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SUASOR_API_BASE_URL
const EnvPrefix = "SUASOR"

// Config holds all application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Storage StorageConfig `mapstructure:"storage"`
	Search  SearchConfig  `mapstructure:"search"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig locates the suasor server
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig tunes the in-memory response caches
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"` // 0 = unbounded
}

// StorageConfig locates durable local state (tokens, preferences, recent searches)
type StorageConfig struct {
	Dir string `mapstructure:"dir"` // empty = memory only
}

// SearchConfig holds search defaults
type SearchConfig struct {
	Sources []string `mapstructure:"sources"`
	Limit   int      `mapstructure:"limit"`
}

// UIConfig holds presentation settings
type UIConfig struct {
	SuccessDismiss time.Duration `mapstructure:"success_dismiss"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api/v1",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			MaxEntries: 0,
		},
		Storage: StorageConfig{
			Dir: defaultDataPath(),
		},
		Search: SearchConfig{
			Sources: []string{"local", "client", "metadata"},
			Limit:   20,
		},
		UI: UIConfig{
			SuccessDismiss: 3 * time.Second,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "suasor.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "suasor")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "suasor")
	}
}

// DefaultDir returns the default config directory for the current OS
func DefaultDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "suasor")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "suasor")
	}
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)
	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("search.sources", cfg.Search.Sources)
	v.SetDefault("search.limit", cfg.Search.Limit)
	v.SetDefault("ui.success_dismiss", cfg.UI.SuccessDismiss)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config.yaml from dir (or the default locations when dir is empty),
// applies SUASOR_* environment overrides and fills the rest with defaults.
func Load(dir string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if dir != "" {
		v.AddConfigPath(dir)
	} else {
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to config.yaml in dir (the default directory when empty)
func Save(cfg *Config, dir string) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("cache.max_entries", cfg.Cache.MaxEntries)
	v.Set("storage.dir", cfg.Storage.Dir)
	v.Set("search.sources", cfg.Search.Sources)
	v.Set("search.limit", cfg.Search.Limit)
	v.Set("ui.success_dismiss", cfg.UI.SuccessDismiss.String())
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
