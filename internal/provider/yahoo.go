package provider

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"StockSentinel/internal/model"
	"StockSentinel/internal/symbol"
)

// DefaultYahooURL is the public Yahoo Finance chart host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// Yahoo fetches bars from the Yahoo Finance v8 chart API. No key is needed.
type Yahoo struct {
	client
}

// NewYahoo creates a Yahoo Finance adapter.
func NewYahoo(opts ...Option) *Yahoo {
	return &Yahoo{client: newClient(symbol.ProviderYahoo, DefaultYahooURL, 2, opts...)}
}

func (y *Yahoo) Name() string { return symbol.ProviderYahoo }

// yahooChart is the response structure from the chart API.
// Quote arrays contain nulls on holidays, hence the pointers.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// yahooRange picks the smallest chart range covering days calendar days.
func yahooRange(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

func (y *Yahoo) Fetch(ctx context.Context, code string, days int) (model.PriceSeries, error) {
	ticker := symbol.FormatForProvider(code, y.Name())
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		y.baseURL, url.PathEscape(ticker), yahooRange(days))

	var chart yahooChart
	if err := y.getJSON(ctx, u, nil, &chart); err != nil {
		return model.PriceSeries{}, err
	}
	if chart.Chart.Error != nil {
		return model.PriceSeries{}, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return model.PriceSeries{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		bars = append(bars, model.PriceBar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   at(quote.Open, i),
			High:   at(quote.High, i),
			Low:    at(quote.Low, i),
			Close:  at(quote.Close, i),
			Volume: at(quote.Volume, i),
		})
	}

	bars = normalizeBars(bars, days)
	if len(bars) == 0 {
		return model.PriceSeries{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}
	return model.PriceSeries{
		Symbol:    code,
		Bars:      bars,
		Source:    model.SourceExternal,
		Provider:  y.Name(),
		FetchedAt: time.Now(),
	}, nil
}
