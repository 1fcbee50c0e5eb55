package provider

import (
	"fmt"

	"github.com/rs/zerolog"

	"StockSentinel/internal/config"
	"StockSentinel/internal/symbol"
)

// FromConfig builds the adapter chain in the configured priority order.
func FromConfig(cfg *config.Config, log zerolog.Logger) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(cfg.Providers.Order))
	for _, name := range cfg.Providers.Order {
		s := cfg.ProviderSettings(name)
		opts := []Option{
			WithBaseURL(s.BaseURL),
			WithAPIKey(s.APIKey),
			WithRetries(cfg.Providers.Retries),
			WithLogger(log.With().Str("provider", name).Logger()),
			WithProxy(cfg.Proxy),
		}
		if s.RatePerSecond > 0 {
			opts = append(opts, WithRateLimit(s.RatePerSecond))
		}

		switch name {
		case symbol.ProviderTiingo:
			adapters = append(adapters, NewTiingo(opts...))
		case symbol.ProviderBrAPI:
			adapters = append(adapters, NewBrAPI(opts...))
		case symbol.ProviderYahoo:
			adapters = append(adapters, NewYahoo(opts...))
		case symbol.ProviderAlphaVantage:
			adapters = append(adapters, NewAlphaVantage(opts...))
		case symbol.ProviderSynthetic:
			adapters = append(adapters, NewSynthetic())
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return adapters, nil
}
