// Package batch runs periodic analysis cycles: every watched symbol is
// analyzed once and the results are fanned out to each subscriber.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"StockSentinel/internal/directory"
	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/symbol"
)

// DefaultConcurrency bounds parallel analyses when none is configured.
const DefaultConcurrency = 4

// Cache is the subset of the analysis cache a cycle needs.
type Cache interface {
	Reset(subscribers map[string][]string, cycleAt time.Time)
	Analyze(ctx context.Context, sym symbol.Symbol) (model.AnalysisResult, error)
}

// Report summarizes one cycle.
type Report struct {
	CycleID    string
	StartedAt  time.Time
	FinishedAt time.Time
	// Symbols is the number of distinct valid symbols analyzed.
	Symbols  int
	Results  map[string]model.AnalysisResult
	Failures map[string]string
	Notified int
}

// Errors returns the failures as "SYMBOL: reason" lines sorted by symbol.
func (r *Report) Errors() []string {
	keys := make([]string, 0, len(r.Failures))
	for k := range r.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k + ": " + r.Failures[k]
	}
	return out
}

// Orchestrator runs cycles against a directory, a cache and a notifier.
type Orchestrator struct {
	cache       Cache
	dir         directory.Directory
	notifier    notifier.Notifier
	recorder    recorder.Recorder
	codec       *symbol.Codec
	concurrency int
	log         zerolog.Logger
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency sets the worker pool size.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRecorder persists each cycle.
func WithRecorder(r recorder.Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithCodec overrides the symbol codec used to parse watchlists.
func WithCodec(c *symbol.Codec) Option {
	return func(o *Orchestrator) { o.codec = c }
}

// New creates an Orchestrator.
func New(cache Cache, dir directory.Directory, n notifier.Notifier, log zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cache:       cache,
		dir:         dir,
		notifier:    n,
		recorder:    recorder.NewNoopRecorder(),
		codec:       symbol.NewCodec(),
		concurrency: DefaultConcurrency,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// watch is a subscriber's parsed watchlist.
type watch struct {
	sub   model.Subscriber
	codes []string
	// invalid holds watchlist entries that did not parse.
	invalid []string
}

// RunCycle analyzes every distinct watched symbol exactly once, then builds
// and sends one digest per subscriber. Per-symbol failures are collected in
// the report and never abort the cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) (*Report, error) {
	report := &Report{
		CycleID:   uuid.NewString(),
		StartedAt: o.now(),
		Results:   make(map[string]model.AnalysisResult),
		Failures:  make(map[string]string),
	}
	log := o.log.With().Str("cycle_id", report.CycleID).Logger()

	subs, err := o.dir.ActiveSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	watches, symbols, index := o.collect(subs, report)
	report.Symbols = len(symbols)
	log.Info().Int("subscribers", len(subs)).Int("symbols", len(symbols)).Msg("cycle started")

	o.cache.Reset(index, report.StartedAt)
	o.analyzeAll(ctx, symbols, report, log)

	for _, code := range sortedKeys(report.Results) {
		if err := o.recorder.RecordAnalysis(ctx, report.CycleID, report.Results[code]); err != nil {
			log.Error().Err(err).Str("symbol", code).Msg("record analysis")
		}
	}

	if ctx.Err() == nil {
		for _, w := range watches {
			if o.notify(ctx, w, report, log) {
				report.Notified++
			}
		}
	}

	report.FinishedAt = o.now()
	metrics.CycleDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	if err := o.recorder.RecordCycle(ctx, &recorder.CycleRecord{
		ID:         report.CycleID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Symbols:    report.Symbols,
		Analyzed:   len(report.Results),
		Failed:     len(report.Failures),
		Notified:   report.Notified,
		Errors:     report.Errors(),
	}); err != nil {
		log.Error().Err(err).Msg("record cycle")
	}

	log.Info().
		Int("analyzed", len(report.Results)).
		Int("failed", len(report.Failures)).
		Int("notified", report.Notified).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("cycle finished")
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("cycle %s interrupted: %w", report.CycleID, err)
	}
	return report, nil
}

// collect parses watchlists, recording malformed entries as failures, and
// returns the distinct symbols with the subscribers watching each.
func (o *Orchestrator) collect(subs []model.Subscriber, report *Report) ([]watch, map[string]symbol.Symbol, map[string][]string) {
	symbols := make(map[string]symbol.Symbol)
	index := make(map[string][]string)
	watches := make([]watch, 0, len(subs))

	for _, sub := range subs {
		w := watch{sub: sub}
		seen := make(map[string]bool)
		for _, raw := range sub.Watchlist {
			sym, err := o.codec.Parse(raw)
			if err != nil {
				report.Failures[raw] = err.Error()
				w.invalid = append(w.invalid, raw)
				metrics.AnalysisErrors.WithLabelValues("invalid_symbol").Inc()
				continue
			}
			if seen[sym.Code] {
				continue
			}
			seen[sym.Code] = true
			w.codes = append(w.codes, sym.Code)
			symbols[sym.Code] = sym
			index[sym.Code] = append(index[sym.Code], sub.ID)
		}
		watches = append(watches, w)
	}
	return watches, symbols, index
}

func (o *Orchestrator) analyzeAll(ctx context.Context, symbols map[string]symbol.Symbol, report *Report, log zerolog.Logger) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for _, code := range sortedKeys(symbols) {
		sym := symbols[code]
		g.Go(func() error {
			res, err := o.cache.Analyze(gctx, sym)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures[sym.Code] = err.Error()
				log.Warn().Err(err).Str("symbol", sym.Code).Msg("analysis failed, skipping")
				return nil
			}
			report.Results[sym.Code] = res
			return nil
		})
	}
	_ = g.Wait()
}

// notify builds the subscriber digest and sends it if non-empty.
func (o *Orchestrator) notify(ctx context.Context, w watch, report *Report, log zerolog.Logger) bool {
	held := make(map[string]model.Position)
	positions, err := o.dir.PortfolioOf(ctx, w.sub.ID)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		log.Warn().Err(err).Str("subscriber", w.sub.ID).Msg("portfolio lookup failed, treating as empty")
	}
	for _, p := range positions {
		code, err := symbol.Normalize(p.Symbol)
		if err != nil {
			continue
		}
		held[code] = p
	}

	digest := BuildDigest(report, w.sub, w.codes, held, o.now())
	for _, raw := range w.invalid {
		digest.Errors = append(digest.Errors, raw+": "+report.Failures[raw])
	}
	if digest.Empty() {
		return false
	}
	if err := o.notifier.Notify(ctx, digest); err != nil {
		log.Error().Err(err).Str("subscriber", w.sub.ID).Msg("notify failed")
		return false
	}
	return true
}

// BuildDigest fans cycle results out to one subscriber: sell signals only for
// held symbols, buy signals only for symbols not held.
func BuildDigest(report *Report, sub model.Subscriber, codes []string, held map[string]model.Position, at time.Time) model.Digest {
	d := model.Digest{CycleID: report.CycleID, Subscriber: sub, GeneratedAt: at}
	for _, code := range codes {
		res, ok := report.Results[code]
		if !ok {
			if msg, failed := report.Failures[code]; failed {
				d.Errors = append(d.Errors, code+": "+msg)
			}
			continue
		}
		d.Analyses = append(d.Analyses, res)

		pos, isHeld := held[code]
		switch {
		case isHeld && res.CurrentSignal == model.Sell:
			p := pos
			d.SellSignals = append(d.SellSignals, model.SignalItem{Analysis: res, Position: &p})
		case !isHeld && res.NewSignal == model.Buy:
			d.BuySignals = append(d.BuySignals, model.SignalItem{Analysis: res})
		}
	}
	return d
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
