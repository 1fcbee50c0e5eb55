package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"StockSentinel/internal/model"
)

// SQLiteRecorder persists cycles and their analyses to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// Open opens (or creates) a SQLite database in WAL mode, creating the parent
// directory if needed.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// WAL lets the CLI read history while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return db, nil
}

// NewSQLiteRecorder opens the database at dbPath and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cycle_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			symbols     INTEGER,
			analyzed    INTEGER,
			failed      INTEGER,
			notified    INTEGER,
			errors      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_started ON cycle_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS analysis_results (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			cycle_id         TEXT NOT NULL,
			symbol           TEXT NOT NULL,
			computed_at      INTEGER NOT NULL,
			price            REAL,
			stop_loss        REAL,
			take_profit      REAL,
			period_return    REAL,
			rsi              REAL,
			macd             REAL,
			trend            TEXT,
			current_position TEXT,
			new_position     TEXT,
			data_source      TEXT,
			provider         TEXT,
			conditions       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_cycle ON analysis_results(cycle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_symbol ON analysis_results(symbol, computed_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(ctx context.Context, rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO cycle_runs
		(id, started_at, finished_at, symbols, analyzed, failed, notified, errors)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.StartedAt.Unix(), rec.FinishedAt.Unix(),
		rec.Symbols, rec.Analyzed, rec.Failed, rec.Notified, string(errs),
	)
	return err
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, cycleID string, res model.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conds, err := json.Marshal(res.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO analysis_results
		(cycle_id, symbol, computed_at, price, stop_loss, take_profit, period_return,
		 rsi, macd, trend, current_position, new_position, data_source, provider, conditions)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		cycleID, res.Symbol, res.ComputedAt.Unix(),
		res.Price, res.StopLoss, res.TakeProfit, res.PeriodReturnPct,
		res.RSI, res.MACDHistogram, string(res.Trend),
		string(res.CurrentSignal), string(res.NewSignal),
		string(res.DataSource), res.Provider, string(conds),
	)
	return err
}

// RecentCycles returns up to limit cycles, newest first.
func (r *SQLiteRecorder) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, started_at, finished_at, symbols, analyzed, failed, notified, errors
		FROM cycle_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		var (
			rec            CycleRecord
			started, ended int64
			errs           string
		)
		if err := rows.Scan(&rec.ID, &started, &ended, &rec.Symbols, &rec.Analyzed, &rec.Failed, &rec.Notified, &errs); err != nil {
			return nil, err
		}
		rec.StartedAt = time.Unix(started, 0)
		rec.FinishedAt = time.Unix(ended, 0)
		if err := json.Unmarshal([]byte(errs), &rec.Errors); err != nil {
			return nil, fmt.Errorf("decode errors for cycle %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AnalysesForCycle returns the results stored for one cycle ordered by symbol.
func (r *SQLiteRecorder) AnalysesForCycle(ctx context.Context, cycleID string) ([]model.AnalysisResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol, computed_at, price, stop_loss, take_profit, period_return,
		rsi, macd, trend, current_position, new_position, data_source, provider, conditions
		FROM analysis_results WHERE cycle_id = ? ORDER BY symbol`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisResult
	for rows.Next() {
		var (
			res                                 model.AnalysisResult
			computed                            int64
			trend, current, next, source, conds string
		)
		if err := rows.Scan(&res.Symbol, &computed, &res.Price, &res.StopLoss, &res.TakeProfit, &res.PeriodReturnPct,
			&res.RSI, &res.MACDHistogram, &trend, &current, &next, &source, &res.Provider, &conds); err != nil {
			return nil, err
		}
		res.RawSymbol = res.Symbol
		res.ComputedAt = time.Unix(computed, 0)
		res.Trend = model.Trend(trend)
		res.CurrentSignal = model.CurrentSignal(current)
		res.NewSignal = model.NewSignal(next)
		res.DataSource = model.DataSource(source)
		if err := json.Unmarshal([]byte(conds), &res.Conditions); err != nil {
			return nil, fmt.Errorf("decode conditions for %s: %w", res.Symbol, err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// DB exposes the underlying handle so other stores can share the file.
func (r *SQLiteRecorder) DB() *sql.DB { return r.db }

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
