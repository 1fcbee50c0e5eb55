package directory

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
)

// SQLite stores subscribers, watchlists and positions in SQLite.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite wraps an open database handle and creates the tables.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subscribers (
			id     TEXT PRIMARY KEY,
			name   TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS watchlist (
			subscriber_id TEXT NOT NULL REFERENCES subscribers(id),
			symbol        TEXT NOT NULL,
			active        INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (subscriber_id, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			subscriber_id TEXT NOT NULL REFERENCES subscribers(id),
			symbol        TEXT NOT NULL,
			quantity      REAL NOT NULL,
			avg_price     REAL NOT NULL,
			PRIMARY KEY (subscriber_id, symbol)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// UpsertSubscriber creates or renames a subscriber and marks it active or not.
func (s *SQLite) UpsertSubscriber(ctx context.Context, id, name string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO subscribers (id, name, active) VALUES (?,?,?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, active = excluded.active`,
		id, name, boolInt(active))
	return err
}

// Watch adds symbol to a subscriber's watchlist, reactivating it if needed.
func (s *SQLite) Watch(ctx context.Context, subscriberID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO watchlist (subscriber_id, symbol, active) VALUES (?,?,1)
		ON CONFLICT(subscriber_id, symbol) DO UPDATE SET active = 1`, subscriberID, symbol)
	return err
}

// Unwatch deactivates a watchlist entry.
func (s *SQLite) Unwatch(ctx context.Context, subscriberID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `UPDATE watchlist SET active = 0 WHERE subscriber_id = ? AND symbol = ?`, subscriberID, symbol)
	return err
}

// SetPosition stores a holding; a non-positive quantity removes it.
func (s *SQLite) SetPosition(ctx context.Context, subscriberID string, p model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Quantity <= 0 {
		_, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE subscriber_id = ? AND symbol = ?`, subscriberID, p.Symbol)
		return err
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO positions (subscriber_id, symbol, quantity, avg_price) VALUES (?,?,?,?)
		ON CONFLICT(subscriber_id, symbol) DO UPDATE SET quantity = excluded.quantity, avg_price = excluded.avg_price`,
		subscriberID, p.Symbol, p.Quantity, p.AvgPrice)
	return err
}

// Seed imports config entries, leaving existing rows for other subscribers alone.
func (s *SQLite) Seed(ctx context.Context, entries []config.SubscriberEntry) error {
	for _, e := range entries {
		if err := s.UpsertSubscriber(ctx, e.ID, e.Name, true); err != nil {
			return fmt.Errorf("seed subscriber %s: %w", e.ID, err)
		}
		for _, sym := range e.Watchlist {
			if err := s.Watch(ctx, e.ID, sym); err != nil {
				return fmt.Errorf("seed watchlist %s/%s: %w", e.ID, sym, err)
			}
		}
		for _, p := range e.Portfolio {
			pos := model.Position{Symbol: p.Symbol, Quantity: p.Quantity, AvgPrice: p.AvgPrice}
			if err := s.SetPosition(ctx, e.ID, pos); err != nil {
				return fmt.Errorf("seed position %s/%s: %w", e.ID, p.Symbol, err)
			}
		}
	}
	return nil
}

func (s *SQLite) ActiveSubscribers(ctx context.Context) ([]model.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s.id, s.name, w.symbol
		FROM subscribers s
		LEFT JOIN watchlist w ON w.subscriber_id = s.id AND w.active = 1
		WHERE s.active = 1
		ORDER BY s.id, w.symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Subscriber
	for rows.Next() {
		var (
			id, name string
			symbol   sql.NullString
		)
		if err := rows.Scan(&id, &name, &symbol); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].ID != id {
			out = append(out, model.Subscriber{ID: id, Name: name})
		}
		if symbol.Valid {
			last := &out[len(out)-1]
			last.Watchlist = append(last.Watchlist, symbol.String)
		}
	}
	return out, rows.Err()
}

func (s *SQLite) PortfolioOf(ctx context.Context, subscriberID string) ([]model.Position, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM subscribers WHERE id = ?`, subscriberID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, subscriberID)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT symbol, quantity, avg_price FROM positions
		WHERE subscriber_id = ? ORDER BY symbol`, subscriberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.Symbol, &p.Quantity, &p.AvgPrice); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
