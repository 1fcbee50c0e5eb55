package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/symbol"
)

// DefaultAlphaVantageURL is the Alpha Vantage host.
const DefaultAlphaVantageURL = "https://www.alphavantage.co"

// AlphaVantage fetches TIME_SERIES_DAILY data. Requires an API key; the free
// tier allows very few requests per minute.
type AlphaVantage struct {
	client
}

// NewAlphaVantage creates an Alpha Vantage adapter.
func NewAlphaVantage(opts ...Option) *AlphaVantage {
	return &AlphaVantage{client: newClient(symbol.ProviderAlphaVantage, DefaultAlphaVantageURL, 0.2, opts...)}
}

func (a *AlphaVantage) Name() string { return symbol.ProviderAlphaVantage }

type avResponse struct {
	Series      map[string]map[string]string `json:"Time Series (Daily)"`
	ErrorMsg    string                       `json:"Error Message"`
	Note        string                       `json:"Note"`
	Information string                       `json:"Information"`
}

func (a *AlphaVantage) Fetch(ctx context.Context, code string, days int) (model.PriceSeries, error) {
	if a.apiKey == "" {
		return model.PriceSeries{}, fmt.Errorf("alphavantage: %w", ErrNotConfigured)
	}
	ticker := symbol.FormatForProvider(code, a.Name())
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", ticker)
	params.Set("outputsize", "compact")
	params.Set("apikey", a.apiKey)
	u := fmt.Sprintf("%s/query?%s", a.baseURL, params.Encode())

	var resp avResponse
	if err := a.getJSON(ctx, u, nil, &resp); err != nil {
		return model.PriceSeries{}, err
	}
	// Alpha Vantage reports errors and throttling with a 200 status.
	for _, msg := range []string{resp.ErrorMsg, resp.Note, resp.Information} {
		if msg != "" {
			return model.PriceSeries{}, fmt.Errorf("alphavantage api error: %s", msg)
		}
	}

	bars := make([]model.PriceBar, 0, len(resp.Series))
	for date, fields := range resp.Series {
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		bars = append(bars, model.PriceBar{
			Time:   ts,
			Open:   parseFloat(fields["1. open"]),
			High:   parseFloat(fields["2. high"]),
			Low:    parseFloat(fields["3. low"]),
			Close:  parseFloat(fields["4. close"]),
			Volume: parseFloat(fields["5. volume"]),
		})
	}
	bars = normalizeBars(bars, days)
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("alphavantage %s: %w", ticker, ErrNoData)
	}
	return model.PriceSeries{
		Symbol:    code,
		Bars:      bars,
		Source:    model.SourceExternal,
		Provider:  a.Name(),
		FetchedAt: time.Now(),
	}, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
