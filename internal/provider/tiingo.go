package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/symbol"
)

// DefaultTiingoURL is the Tiingo REST host.
const DefaultTiingoURL = "https://api.tiingo.com"

// Tiingo fetches end-of-day prices from Tiingo. Requires an API token.
type Tiingo struct {
	client
	now func() time.Time
}

// NewTiingo creates a Tiingo adapter.
func NewTiingo(opts ...Option) *Tiingo {
	return &Tiingo{
		client: newClient(symbol.ProviderTiingo, DefaultTiingoURL, 1, opts...),
		now:    time.Now,
	}
}

func (t *Tiingo) Name() string { return symbol.ProviderTiingo }

type tiingoBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func (t *Tiingo) Fetch(ctx context.Context, code string, days int) (model.PriceSeries, error) {
	if t.apiKey == "" {
		return model.PriceSeries{}, fmt.Errorf("tiingo: %w", ErrNotConfigured)
	}
	ticker := symbol.FormatForProvider(code, t.Name())
	end := t.now().UTC()
	// Calendar window wide enough to cover days trading sessions.
	start := end.AddDate(0, 0, -(days*7/5 + 7))

	params := url.Values{}
	params.Set("startDate", start.Format("2006-01-02"))
	params.Set("endDate", end.Format("2006-01-02"))
	params.Set("format", "json")
	u := fmt.Sprintf("%s/tiingo/daily/%s/prices?%s", t.baseURL, url.PathEscape(ticker), params.Encode())

	header := http.Header{}
	header.Set("Authorization", "Token "+t.apiKey)

	var rows []tiingoBar
	if err := t.getJSON(ctx, u, header, &rows); err != nil {
		return model.PriceSeries{}, err
	}

	bars := make([]model.PriceBar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, model.PriceBar{
			Time:   r.Date.UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}
	bars = normalizeBars(bars, days)
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("tiingo %s: %w", ticker, ErrNoData)
	}
	return model.PriceSeries{
		Symbol:    code,
		Bars:      bars,
		Source:    model.SourceExternal,
		Provider:  t.Name(),
		FetchedAt: time.Now(),
	}, nil
}
