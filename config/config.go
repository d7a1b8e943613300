package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// INDENGINE_SQLITE_PATH or INDENGINE_DEVICE_WORKERS.
const EnvPrefix = "INDENGINE"

// DeviceConfig sizes the parallel device and its memory pools.
type DeviceConfig struct {
	Workers   int   `mapstructure:"workers"`
	BlockRows int   `mapstructure:"block_rows"`
	MemoryCap int64 `mapstructure:"memory_cap"` // bytes, 0 = unlimited
	PinnedCap int64 `mapstructure:"pinned_cap"` // bytes, 0 = unlimited
}

// AlertConfig selects where operational alerts are sent. Empty values
// disable a channel.
type AlertConfig struct {
	WebhookURL     string `mapstructure:"webhook_url"`
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID string `mapstructure:"telegram_chat_id"`
}

// Config holds all application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Device DeviceConfig `mapstructure:"device"`

	// Infrastructure
	SQLitePath    string        `mapstructure:"sqlite_path"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	LatestTTL     time.Duration `mapstructure:"latest_ttl"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`

	// Refresh loop
	Symbols         []string      `mapstructure:"symbols"`
	History         int           `mapstructure:"history"` // columns per symbol
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Indicators      string        `mapstructure:"indicators"` // "RSI:14,BOLL:20:2,MACD:12:26:9"

	Alerts AlertConfig `mapstructure:"alerts"`
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("device.workers", 0)
	v.SetDefault("device.block_rows", 0)
	v.SetDefault("device.memory_cap", 0)
	v.SetDefault("device.pinned_cap", 0)

	v.SetDefault("sqlite_path", "data/candles.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("latest_ttl", 30*time.Minute)
	v.SetDefault("metrics_addr", ":9095")

	v.SetDefault("symbols", []string{})
	v.SetDefault("history", 200)
	v.SetDefault("refresh_interval", time.Second)
	v.SetDefault("indicators", "")

	v.SetDefault("alerts.webhook_url", "")
	v.SetDefault("alerts.telegram_token", "")
	v.SetDefault("alerts.telegram_chat_id", "")
}

// Load reads configuration from defaults, environment variables and, when
// path is non-empty, a YAML file.
func Load(path string) (*Config, error) {
	return LoadViper(viper.New(), path)
}

// LoadViper is Load on a caller-provided viper instance, so command-line
// flags bound to v take precedence.
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config decode: %w", err)
	}
	cfg.Symbols = cleanSymbols(cfg.Symbols)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	if c.History < 1 {
		return fmt.Errorf("config: history must be positive, got %d", c.History)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("config: refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	if c.Device.Workers < 0 || c.Device.BlockRows < 0 {
		return fmt.Errorf("config: device workers/block_rows must not be negative")
	}
	return nil
}

// cleanSymbols trims and upper-cases symbols, dropping blanks and duplicates.
func cleanSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		// a single env value may still carry commas
		for _, p := range strings.Split(s, ",") {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
