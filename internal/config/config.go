package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Known provider names, in default priority order.
var DefaultProviderOrder = []string{"tiingo", "brapi", "yahoo", "alphavantage", "synthetic"}

// ProviderSettings configures one remote data source.
type ProviderSettings struct {
	BaseURL       string  `yaml:"base_url"`
	APIKey        string  `yaml:"api_key"`
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// PositionEntry is a static portfolio line.
type PositionEntry struct {
	Symbol   string  `yaml:"symbol"`
	Quantity float64 `yaml:"quantity"`
	AvgPrice float64 `yaml:"avg_price"`
}

// SubscriberEntry is a static subscriber definition.
type SubscriberEntry struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Watchlist []string        `yaml:"watchlist"`
	Portfolio []PositionEntry `yaml:"portfolio"`
}

// Config holds all application configuration.
type Config struct {
	Providers struct {
		Order          []string         `yaml:"order"`
		TimeoutSeconds int              `yaml:"timeout_seconds"`
		HistoryDays    int              `yaml:"history_days"`
		Retries        int              `yaml:"retries"`
		Tiingo         ProviderSettings `yaml:"tiingo"`
		BrAPI          ProviderSettings `yaml:"brapi"`
		Yahoo          ProviderSettings `yaml:"yahoo"`
		AlphaVantage   ProviderSettings `yaml:"alphavantage"`
	} `yaml:"providers"`
	Batch struct {
		Cron        string `yaml:"cron"`
		Concurrency int    `yaml:"concurrency"`
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"batch"`
	Symbols struct {
		Strict bool `yaml:"strict"`
	} `yaml:"symbols"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
		APIBase  string `yaml:"api_base"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Subscribers []SubscriberEntry `yaml:"subscribers"`
	Proxy       string            `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads .env (if present, a malformed one is an error), then the YAML file, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TIINGO_API_KEY"); v != "" {
		cfg.Providers.Tiingo.APIKey = v
	}
	if v := os.Getenv("BRAPI_API_KEY"); v != "" {
		cfg.Providers.BrAPI.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_CYCLE"); v != "" {
		cfg.Batch.Cron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Batch.RunOnStart = b
		}
	}
	if v := os.Getenv("SYMBOLS_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Symbols.Strict = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if len(cfg.Providers.Order) == 0 {
		cfg.Providers.Order = append([]string(nil), DefaultProviderOrder...)
	}
	for i, name := range cfg.Providers.Order {
		cfg.Providers.Order[i] = strings.ToLower(strings.TrimSpace(name))
	}
	if cfg.Providers.TimeoutSeconds == 0 {
		cfg.Providers.TimeoutSeconds = 10
	}
	if cfg.Providers.HistoryDays == 0 {
		cfg.Providers.HistoryDays = 30
	}
	if cfg.Providers.Retries == 0 {
		cfg.Providers.Retries = 2
	}
	if cfg.Batch.Cron == "" {
		cfg.Batch.Cron = "0 0 * * * *"
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 4
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/sentinel.db"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":8000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// ProviderTimeout is the per-adapter call timeout.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Providers.TimeoutSeconds) * time.Second
}

// ProviderSettings returns the settings block for a named provider.
func (c *Config) ProviderSettings(name string) ProviderSettings {
	switch name {
	case "tiingo":
		return c.Providers.Tiingo
	case "brapi":
		return c.Providers.BrAPI
	case "yahoo":
		return c.Providers.Yahoo
	case "alphavantage":
		return c.Providers.AlphaVantage
	default:
		return ProviderSettings{}
	}
}

// TelegramEnabled reports whether both bot credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	order := c.Providers.Order
	if len(order) == 0 {
		return fmt.Errorf("providers.order must not be empty")
	}
	seen := map[string]bool{}
	for _, name := range order {
		if !isKnownProvider(name) {
			return fmt.Errorf("providers.order: unknown provider %q", name)
		}
		if seen[name] {
			return fmt.Errorf("providers.order: duplicate provider %q", name)
		}
		seen[name] = true
	}
	if order[len(order)-1] != "synthetic" {
		return fmt.Errorf("providers.order must end with synthetic")
	}
	if c.Providers.TimeoutSeconds < 0 {
		return fmt.Errorf("providers.timeout_seconds must be positive")
	}
	if c.Providers.HistoryDays < 5 {
		return fmt.Errorf("providers.history_days must be at least 5")
	}
	if c.Providers.Retries < 0 {
		return fmt.Errorf("providers.retries must not be negative")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	ids := map[string]bool{}
	for i, s := range c.Subscribers {
		if s.ID == "" {
			return fmt.Errorf("subscribers[%d].id is required", i)
		}
		if ids[s.ID] {
			return fmt.Errorf("subscribers: duplicate id %q", s.ID)
		}
		ids[s.ID] = true
		for j, p := range s.Portfolio {
			if p.Quantity <= 0 || p.AvgPrice <= 0 {
				return fmt.Errorf("subscribers[%d].portfolio[%d]: quantity and avg_price must be positive", i, j)
			}
		}
	}
	return nil
}

func isKnownProvider(name string) bool {
	for _, p := range DefaultProviderOrder {
		if p == name {
			return true
		}
	}
	return false
}
