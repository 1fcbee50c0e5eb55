package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 15 * time.Second
	// DefaultRetries is the number of retries after the first attempt.
	DefaultRetries = 2

	maxErrorBody = 200
	userAgent    = "Mozilla/5.0 (compatible; StockSentinel/1.0)"
)

// client is the HTTP plumbing shared by the remote adapters.
type client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	log        zerolog.Logger
}

// Option configures a remote adapter.
type Option func(*client)

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithAPIKey sets the credential sent to the provider.
func WithAPIKey(key string) Option {
	return func(c *client) { c.apiKey = key }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithProxy routes requests through the given proxy URL.
func WithProxy(proxyURL string) Option {
	return func(c *client) {
		if proxyURL == "" {
			return
		}
		u, err := url.Parse(proxyURL)
		if err != nil {
			c.log.Warn().Err(err).Str("provider", c.name).Msg("ignoring invalid proxy url")
			return
		}
		c.httpClient = &http.Client{
			Timeout:   c.httpClient.Timeout,
			Transport: &http.Transport{Proxy: http.ProxyURL(u)},
		}
	}
}

// WithRateLimit caps requests per second. Zero or negative disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(c *client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoff sets the initial retry delay; it doubles on every attempt.
func WithBackoff(d time.Duration) Option {
	return func(c *client) { c.backoff = d }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *client) { c.log = log }
}

func newClient(name, baseURL string, perSecond float64, opts ...Option) client {
	c := client{
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retries:    DefaultRetries,
		backoff:    500 * time.Millisecond,
		log:        zerolog.Nop(),
	}
	WithRateLimit(perSecond)(&c)
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON performs a GET with rate limiting and exponential-backoff retries,
// decoding a 200 response into out.
func (c *client) getJSON(ctx context.Context, reqURL string, header http.Header, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			c.log.Debug().Str("provider", c.name).Int("attempt", attempt+1).Dur("backoff", delay).Err(lastErr).Msg("retrying request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		err := c.do(ctx, reqURL, header, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			return err
		}
	}
	return fmt.Errorf("%s: %d attempts failed: %w", c.name, c.retries+1, lastErr)
}

func (c *client) do(ctx context.Context, reqURL string, header http.Header, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limiter: %w", c.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%s request: %w", c.name, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s fetch: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Provider: c.name, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s decode: %w", c.name, err)
	}
	return nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// Decode errors are not transient.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr)
}
