package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/symbol"
)

// DefaultBrAPIURL is the BrAPI host.
const DefaultBrAPIURL = "https://brapi.dev"

// BrAPI fetches bars from brapi.dev. The token is optional for the free tier.
type BrAPI struct {
	client
}

// NewBrAPI creates a BrAPI adapter.
func NewBrAPI(opts ...Option) *BrAPI {
	return &BrAPI{client: newClient(symbol.ProviderBrAPI, DefaultBrAPIURL, 1, opts...)}
}

func (b *BrAPI) Name() string { return symbol.ProviderBrAPI }

// brapiDate accepts either unix seconds or an ISO date.
type brapiDate time.Time

func (d *brapiDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var unix int64
	if err := json.Unmarshal(data, &unix); err == nil {
		*d = brapiDate(time.Unix(unix, 0).UTC())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = brapiDate(t.UTC())
			return nil
		}
	}
	return fmt.Errorf("brapi: unrecognised date %q", s)
}

type brapiBar struct {
	Date   brapiDate `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type brapiResponse struct {
	Results []struct {
		Symbol              string     `json:"symbol"`
		HistoricalDataPrice []brapiBar `json:"historicalDataPrice"`
	} `json:"results"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

func (b *BrAPI) Fetch(ctx context.Context, code string, days int) (model.PriceSeries, error) {
	ticker := symbol.FormatForProvider(code, b.Name())
	params := url.Values{}
	params.Set("range", yahooRange(days))
	params.Set("interval", "1d")
	if b.apiKey != "" {
		params.Set("token", b.apiKey)
	}
	u := fmt.Sprintf("%s/api/quote/%s?%s", b.baseURL, url.PathEscape(ticker), params.Encode())

	var resp brapiResponse
	if err := b.getJSON(ctx, u, nil, &resp); err != nil {
		return model.PriceSeries{}, err
	}
	if resp.Error {
		return model.PriceSeries{}, fmt.Errorf("brapi api error: %s", resp.Message)
	}
	if len(resp.Results) == 0 {
		return model.PriceSeries{}, fmt.Errorf("brapi %s: %w", ticker, ErrNoData)
	}

	hist := resp.Results[0].HistoricalDataPrice
	bars := make([]model.PriceBar, 0, len(hist))
	for _, h := range hist {
		bars = append(bars, model.PriceBar{
			Time:   time.Time(h.Date),
			Open:   h.Open,
			High:   h.High,
			Low:    h.Low,
			Close:  h.Close,
			Volume: h.Volume,
		})
	}
	bars = normalizeBars(bars, days)
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("brapi %s: %w", ticker, ErrNoData)
	}
	return model.PriceSeries{
		Symbol:    code,
		Bars:      bars,
		Source:    model.SourceExternal,
		Provider:  b.Name(),
		FetchedAt: time.Now(),
	}, nil
}
