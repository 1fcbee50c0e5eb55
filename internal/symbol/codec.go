// Package symbol normalizes and classifies B3 ticker codes.
package symbol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidFormat is returned when a code does not look like a ticker.
	ErrInvalidFormat = errors.New("invalid symbol format")
	// ErrUnknownSymbol is returned in strict mode for codes outside the reference set.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

var tickerPattern = regexp.MustCompile(`^[A-Z]{4}\d{1,2}F?$`)

const exchangeSuffix = ".SA"

// Symbol is a normalized ticker, e.g. PETR4 or VALE3F.
type Symbol struct {
	Code         string
	BaseCode     string
	IsFractional bool
	IsKnown      bool
}

func (s Symbol) String() string { return s.Code }

// Codec validates raw codes against the reference set.
type Codec struct {
	known  map[string]struct{}
	strict bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithStrict makes Parse reject codes outside the reference set.
func WithStrict(strict bool) Option {
	return func(c *Codec) { c.strict = strict }
}

// WithKnown replaces the reference set of known base codes.
func WithKnown(codes []string) Option {
	return func(c *Codec) {
		c.known = make(map[string]struct{}, len(codes))
		for _, code := range codes {
			c.known[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
		}
	}
}

// NewCodec creates a codec backed by the built-in reference set.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{known: defaultKnown}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Normalize trims, uppercases and strips the exchange suffix, then validates the result.
// It is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	code = strings.TrimSuffix(code, exchangeSuffix)
	if !tickerPattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q (expected e.g. PETR4, VALE3F)", ErrInvalidFormat, raw)
	}
	return code, nil
}

// BaseCode strips the trailing fractional marker.
func BaseCode(code string) string {
	if IsFractional(code) {
		return code[:len(code)-1]
	}
	return code
}

// IsFractional reports whether the (raw or normalized) code is a fractional variant.
func IsFractional(code string) bool {
	normalized, err := Normalize(code)
	if err != nil {
		return false
	}
	return strings.HasSuffix(normalized, "F")
}

// Parse normalizes raw and classifies it.
func (c *Codec) Parse(raw string) (Symbol, error) {
	code, err := Normalize(raw)
	if err != nil {
		return Symbol{}, err
	}
	sym := c.Classify(code)
	if c.strict && !sym.IsKnown {
		return Symbol{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, sym.BaseCode)
	}
	return sym, nil
}

// Classify builds a Symbol from an already normalized code.
func (c *Codec) Classify(code string) Symbol {
	base := BaseCode(code)
	_, known := c.known[base]
	return Symbol{
		Code:         code,
		BaseCode:     base,
		IsFractional: base != code,
		IsKnown:      known,
	}
}

// Provider identifiers used by FormatForProvider.
const (
	ProviderYahoo        = "yahoo"
	ProviderTiingo       = "tiingo"
	ProviderAlphaVantage = "alphavantage"
	ProviderBrAPI        = "brapi"
	ProviderSynthetic    = "synthetic"
)

// providerSuffix lists providers that need the exchange suffix; all others take the bare code.
var providerSuffix = map[string]string{
	ProviderYahoo:        exchangeSuffix,
	ProviderTiingo:       exchangeSuffix,
	ProviderAlphaVantage: exchangeSuffix,
}

// FormatForProvider renders code the way the given provider expects it.
func FormatForProvider(code, providerID string) string {
	return code + providerSuffix[strings.ToLower(providerID)]
}
