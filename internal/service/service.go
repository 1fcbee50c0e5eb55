// Package service is the facade used by the CLI, the scheduler and the chat
// bot: on-demand analysis with placeholder fallback, batch cycles and
// provider/cache introspection.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/batch"
	"StockSentinel/internal/cache"
	"StockSentinel/internal/config"
	"StockSentinel/internal/directory"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/provider"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/symbol"
)

// ErrCycleRunning is returned when a cycle is requested while one is in flight.
var ErrCycleRunning = errors.New("a cycle is already running")

// DefaultProbeSymbols are used by ProbeProviders when no codes are given.
var DefaultProbeSymbols = []string{"PETR4", "VALE3"}

// CycleRunner runs one batch cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*batch.Report, error)
}

// Service ties the analysis pipeline together.
type Service struct {
	codec     *symbol.Codec
	cache     *cache.Cache
	providers *provider.Fallback
	cycles    CycleRunner
	days      int
	log       zerolog.Logger
	now       func() time.Time

	running    atomic.Bool
	wg         sync.WaitGroup
	lastReport atomic.Pointer[batch.Report]
}

// New creates a Service from already built components.
func New(codec *symbol.Codec, c *cache.Cache, providers *provider.Fallback, cycles CycleRunner, days int, log zerolog.Logger) *Service {
	return &Service{
		codec:     codec,
		cache:     c,
		providers: providers,
		cycles:    cycles,
		days:      days,
		log:       log,
		now:       time.Now,
	}
}

// Build wires the full pipeline from configuration: provider chain, analyzer,
// single-flight cache and batch orchestrator.
func Build(cfg *config.Config, dir directory.Directory, n notifier.Notifier, rec recorder.Recorder, log zerolog.Logger) (*Service, error) {
	adapters, err := provider.FromConfig(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}
	codec := symbol.NewCodec(symbol.WithStrict(cfg.Symbols.Strict))
	chain := provider.NewFallback(adapters, cfg.ProviderTimeout(), log.With().Str("component", "fallback").Logger())
	an := analyzer.New(chain, cfg.Providers.HistoryDays, log.With().Str("component", "analyzer").Logger())
	c := cache.New(an.Analyze, log.With().Str("component", "cache").Logger())
	orch := batch.New(c, dir, n, log.With().Str("component", "batch").Logger(),
		batch.WithConcurrency(cfg.Batch.Concurrency),
		batch.WithRecorder(rec),
		batch.WithCodec(codec),
	)
	log.Info().Strs("providers", chain.Names()).Bool("strict_symbols", cfg.Symbols.Strict).Msg("pipeline ready")
	return New(codec, c, chain, orch, cfg.Providers.HistoryDays, log), nil
}

// Analyze returns the analysis for raw. Malformed or (in strict mode) unknown
// symbols are returned as errors; any other failure yields a neutral
// placeholder so callers always get something to show.
func (s *Service) Analyze(ctx context.Context, raw string) (model.AnalysisResult, error) {
	sym, err := s.codec.Parse(raw)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	res, err := s.cache.Analyze(ctx, sym)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.AnalysisResult{}, ctxErr
		}
		s.log.Error().Err(err).Str("symbol", sym.Code).Msg("analysis failed, returning placeholder")
		return analyzer.Placeholder(raw, err, s.now()), nil
	}
	res.RawSymbol = raw
	return res, nil
}

// RunCycle runs a batch cycle in the caller's goroutine. Overlapping cycles
// are refused with ErrCycleRunning.
func (s *Service) RunCycle(ctx context.Context) (*batch.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleRunning
	}
	defer s.running.Store(false)

	report, err := s.cycles.RunCycle(ctx)
	if report != nil {
		s.lastReport.Store(report)
	}
	return report, err
}

// TriggerCycle starts a cycle in the background and reports whether it did.
func (s *Service) TriggerCycle(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		report, err := s.cycles.RunCycle(ctx)
		if report != nil {
			s.lastReport.Store(report)
		}
		if err != nil {
			s.log.Error().Err(err).Msg("background cycle failed")
		}
	}()
	return true
}

// Running reports whether a cycle is in flight.
func (s *Service) Running() bool { return s.running.Load() }

// LastReport returns the most recent cycle report, or nil.
func (s *Service) LastReport() *batch.Report { return s.lastReport.Load() }

// Wait blocks until background cycles have finished.
func (s *Service) Wait() { s.wg.Wait() }

// CacheStats returns the cache snapshot.
func (s *Service) CacheStats() model.CacheStats { return s.cache.Stats() }

// ProviderStats returns the fallback usage counters.
func (s *Service) ProviderStats() []provider.AdapterStats { return s.providers.Stats() }

// ProbeProviders asks every provider for each code. Invalid codes are
// reported as failures for every provider.
func (s *Service) ProbeProviders(ctx context.Context, codes []string) []provider.ProbeResult {
	if len(codes) == 0 {
		codes = DefaultProbeSymbols
	}
	valid := make([]string, 0, len(codes))
	var invalid []provider.ProbeResult
	for _, raw := range codes {
		code, err := symbol.Normalize(raw)
		if err != nil {
			for i, name := range s.providers.Names() {
				invalid = append(invalid, provider.ProbeResult{Provider: name, Priority: i + 1, Symbol: raw, Error: err.Error()})
			}
			continue
		}
		valid = append(valid, code)
	}
	return append(s.providers.Probe(ctx, valid, s.days), invalid...)
}
