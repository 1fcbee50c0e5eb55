package recorder

import (
	"context"
	"time"

	"StockSentinel/internal/model"
)

// CycleRecord summarizes one batch cycle.
type CycleRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Symbols    int
	Analyzed   int
	Failed     int
	Notified   int
	Errors     []string
}

// Recorder persists cycle history for later inspection.
type Recorder interface {
	RecordCycle(ctx context.Context, rec *CycleRecord) error
	RecordAnalysis(ctx context.Context, cycleID string, res model.AnalysisResult) error
	Close() error
}
