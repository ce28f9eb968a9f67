// Package config loads coordinator, fetcher, and cache settings from a
// config file, environment variables, and defaults, in that order of
// precedence. Keys use dotted paths ("fetch.timeout_seconds"); the
// matching environment variable is ASYNKF_FETCH_TIMEOUT_SECONDS.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete AsynKingfisher configuration.
type Config struct {
	Binding BindingConfig `mapstructure:"binding"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BindingConfig carries per-load option defaults applied by callers that
// build requests from configuration.
type BindingConfig struct {
	// KeepCurrentImageWhileLoading suppresses placeholder overwrites on
	// rebind when the slot already shows content.
	KeepCurrentImageWhileLoading bool `mapstructure:"keep_current_image_while_loading"`
}

// FetchConfig controls the HTTP resource manager.
type FetchConfig struct {
	// TimeoutSeconds bounds a single fetch.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// AllowedHosts restricts downloads to matching host globs. Empty
	// admits every host.
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// CacheConfig controls the image stores.
type CacheConfig struct {
	// MemoryCapacity is the max entry count of the in-memory store.
	MemoryCapacity int `mapstructure:"memory_capacity"`
	// TTLHours is the retention for cached entries. 0 keeps entries for
	// the store default.
	TTLHours int `mapstructure:"ttl_hours"`
	// RedisAddr, when non-empty, enables the Redis-backed store at this
	// address instead of the in-memory one.
	RedisAddr string `mapstructure:"redis_addr"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
	// Dir is the log directory; empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// Timeout returns the fetch timeout as a duration.
func (c *FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TTL returns the cache retention as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Binding: BindingConfig{
			KeepCurrentImageWhileLoading: false,
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 30,
			AllowedHosts:   nil,
		},
		Cache: CacheConfig{
			MemoryCapacity: 128,
			TTLHours:       24,
			RedisAddr:      "",
		},
		Logging: LoggingConfig{
			Level: "INFO",
			Dir:   "",
		},
	}
}

// SetDefaults registers the built-in defaults with viper so they apply
// even without a config file.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("binding.keep_current_image_while_loading", defaults.Binding.KeepCurrentImageWhileLoading)

	viper.SetDefault("fetch.timeout_seconds", defaults.Fetch.TimeoutSeconds)
	viper.SetDefault("fetch.allowed_hosts", defaults.Fetch.AllowedHosts)

	viper.SetDefault("cache.memory_capacity", defaults.Cache.MemoryCapacity)
	viper.SetDefault("cache.ttl_hours", defaults.Cache.TTLHours)
	viper.SetDefault("cache.redis_addr", defaults.Cache.RedisAddr)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Load unmarshals the effective configuration.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the system cannot run with.
func (c *Config) Validate() error {
	if c.Fetch.TimeoutSeconds < 0 {
		return fmt.Errorf("config: fetch.timeout_seconds must be >= 0, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Cache.MemoryCapacity < 0 {
		return fmt.Errorf("config: cache.memory_capacity must be >= 0, got %d", c.Cache.MemoryCapacity)
	}
	if c.Cache.TTLHours < 0 {
		return fmt.Errorf("config: cache.ttl_hours must be >= 0, got %d", c.Cache.TTLHours)
	}
	return nil
}

// ConfigDir returns the directory searched for the config file,
// $HOME/.config/asynkf.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "asynkf")
}
