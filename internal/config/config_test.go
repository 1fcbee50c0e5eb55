package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TIINGO_API_KEY", "BRAPI_API_KEY", "ALPHA_VANTAGE_API_KEY", "HTTPS_PROXY",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SQLITE_PATH", "CRON_CYCLE",
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR", "SYMBOLS_STRICT", "RUN_ON_START",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultProviderOrder, cfg.Providers.Order)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout())
	assert.Equal(t, 30, cfg.Providers.HistoryDays)
	assert.Equal(t, 2, cfg.Providers.Retries)
	assert.Equal(t, "0 0 * * * *", cfg.Batch.Cron)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, "data/sentinel.db", cfg.Database.SQLitePath)
	assert.Equal(t, ":8000", cfg.Metrics.Addr)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
providers:
  order: [BrAPI, synthetic]
  timeout_seconds: 3
  brapi:
    api_key: from-file
    rate_per_second: 5
batch:
  concurrency: 8
subscribers:
  - id: u1
    name: Ana
    watchlist: [PETR4, VALE3F]
    portfolio:
      - {symbol: PETR4, quantity: 100, avg_price: 30}
`)
	clearEnv(t)
	t.Setenv("BRAPI_API_KEY", "from-env")
	t.Setenv("CRON_CYCLE", "0 */5 * * * *")
	t.Setenv("SYMBOLS_STRICT", "true")
	t.Setenv("RUN_ON_START", "1")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"brapi", "synthetic"}, cfg.Providers.Order)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout())
	assert.Equal(t, "from-env", cfg.ProviderSettings("brapi").APIKey)
	assert.Equal(t, 5.0, cfg.ProviderSettings("brapi").RatePerSecond)
	assert.Equal(t, "0 */5 * * * *", cfg.Batch.Cron)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
	assert.True(t, cfg.Symbols.Strict)
	assert.True(t, cfg.Batch.RunOnStart)
	assert.True(t, cfg.TelegramEnabled())
	require.Len(t, cfg.Subscribers, 1)
	assert.Equal(t, []string{"PETR4", "VALE3F"}, cfg.Subscribers[0].Watchlist)
	assert.Equal(t, 30.0, cfg.Subscribers[0].Portfolio[0].AvgPrice)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o644))
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load .env")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "providers: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"synthetic not last", func(c *Config) { c.Providers.Order = []string{"synthetic", "yahoo"} }},
		{"unknown provider", func(c *Config) { c.Providers.Order = []string{"bloomberg", "synthetic"} }},
		{"duplicate provider", func(c *Config) { c.Providers.Order = []string{"yahoo", "yahoo", "synthetic"} }},
		{"too few days", func(c *Config) { c.Providers.HistoryDays = 3 }},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "tok" }},
		{"subscriber without id", func(c *Config) { c.Subscribers = []SubscriberEntry{{Name: "x"}} }},
		{"bad position", func(c *Config) {
			c.Subscribers = []SubscriberEntry{{ID: "a", Portfolio: []PositionEntry{{Symbol: "PETR4", Quantity: 0, AvgPrice: 1}}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv("CONFIG_PATH", "/etc/sentinel.yaml")
	assert.Equal(t, "/etc/sentinel.yaml", Path())
}
