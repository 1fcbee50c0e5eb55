package recorder

import (
	"context"

	"StockSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ context.Context, _ *CycleRecord) error { return nil }
func (n *NoopRecorder) RecordAnalysis(_ context.Context, _ string, _ model.AnalysisResult) error {
	return nil
}
func (n *NoopRecorder) Close() error { return nil }
