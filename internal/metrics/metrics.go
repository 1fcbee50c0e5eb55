package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ProviderAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_provider_attempts_total", Help: "Provider fetch attempts by outcome"},
		[]string{"provider", "outcome"},
	)
	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_analyses_total", Help: "Completed analyses by data source"},
		[]string{"source"},
	)
	AnalysisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_analysis_errors_total", Help: "Failed analyses by kind"},
		[]string{"kind"},
	)
	Recommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_recommendations_total", Help: "Recommendations issued by signal"},
		[]string{"signal"},
	)
	AnalysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "sentinel_analysis_duration_seconds", Help: "Time spent computing one analysis", Buckets: prometheus.DefBuckets},
	)
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sentinel_cache_hits_total", Help: "Analyses served from the cache"},
	)
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sentinel_cache_entries", Help: "Symbols currently cached"},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "sentinel_cycle_duration_seconds", Help: "Batch cycle wall time", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600}},
	)
	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sentinel_notifications_total", Help: "Digests delivered by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		ProviderAttempts,
		AnalysesTotal,
		AnalysisErrors,
		Recommendations,
		AnalysisDuration,
		CacheHits,
		CacheSize,
		CycleDuration,
		NotificationsSent,
	)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
