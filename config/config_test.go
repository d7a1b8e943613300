package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data/candles.db", cfg.SQLitePath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 200, cfg.History)
	assert.Equal(t, time.Second, cfg.RefreshInterval)
	assert.Equal(t, 30*time.Minute, cfg.LatestTTL)
	assert.Equal(t, int64(0), cfg.Device.MemoryCap)
	assert.Empty(t, cfg.Symbols)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INDENGINE_REDIS_ADDR", "redis:6380")
	t.Setenv("INDENGINE_HISTORY", "500")
	t.Setenv("INDENGINE_DEVICE_WORKERS", "3")
	t.Setenv("INDENGINE_REFRESH_INTERVAL", "250ms")
	t.Setenv("INDENGINE_SYMBOLS", "btcusdt, ETHUSDT,,btcusdt")
	t.Setenv("INDENGINE_ALERTS_WEBHOOK_URL", "http://hooks.local/ind")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, 500, cfg.History)
	assert.Equal(t, 3, cfg.Device.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.RefreshInterval)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, "http://hooks.local/ind", cfg.Alerts.WebhookURL)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
history: 64
indicators: "RSI:7,EMA:9"
symbols: [AAPL, MSFT]
device:
  workers: 2
  memory_cap: 1048576
alerts:
  telegram_token: abc
  telegram_chat_id: "-100"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 64, cfg.History)
	assert.Equal(t, "RSI:7,EMA:9", cfg.Indicators)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Symbols)
	assert.Equal(t, 2, cfg.Device.Workers)
	assert.Equal(t, int64(1048576), cfg.Device.MemoryCap)
	assert.Equal(t, "abc", cfg.Alerts.TelegramToken)
	assert.Equal(t, "-100", cfg.Alerts.TelegramChatID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("INDENGINE_HISTORY", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadViper_ExplicitValueWins(t *testing.T) {
	t.Setenv("INDENGINE_HISTORY", "300")
	v := viper.New()
	v.Set("history", 42)

	cfg, err := LoadViper(v, "")
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.History)
}
