package directory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/config"
	"StockSentinel/internal/model"
	"StockSentinel/internal/recorder"
)

var entries = []config.SubscriberEntry{
	{
		ID:        "ana",
		Name:      "Ana",
		Watchlist: []string{"PETR4", "VALE3"},
		Portfolio: []config.PositionEntry{{Symbol: "PETR4", Quantity: 100, AvgPrice: 30}},
	},
	{
		ID:        "bruno",
		Name:      "Bruno",
		Watchlist: []string{"ITUB4"},
	},
}

func TestStatic(t *testing.T) {
	d := NewStatic(entries)
	ctx := context.Background()

	subs, err := d.ActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, model.Subscriber{ID: "ana", Name: "Ana", Watchlist: []string{"PETR4", "VALE3"}}, subs[0])

	pf, err := d.PortfolioOf(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []model.Position{{Symbol: "PETR4", Quantity: 100, AvgPrice: 30}}, pf)

	pf, err = d.PortfolioOf(ctx, "bruno")
	require.NoError(t, err)
	assert.Empty(t, pf)

	_, err = d.PortfolioOf(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := recorder.Open(filepath.Join(t.TempDir(), "dir.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	d, err := NewSQLite(db)
	require.NoError(t, err)
	return d
}

func TestSQLite_SeedAndQuery(t *testing.T) {
	d := newSQLite(t)
	ctx := context.Background()
	require.NoError(t, d.Seed(ctx, entries))
	// Seeding twice is idempotent.
	require.NoError(t, d.Seed(ctx, entries))

	subs, err := d.ActiveSubscribers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Subscriber{
		{ID: "ana", Name: "Ana", Watchlist: []string{"PETR4", "VALE3"}},
		{ID: "bruno", Name: "Bruno", Watchlist: []string{"ITUB4"}},
	}, subs)

	pf, err := d.PortfolioOf(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []model.Position{{Symbol: "PETR4", Quantity: 100, AvgPrice: 30}}, pf)

	_, err = d.PortfolioOf(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_WatchlistAndPositions(t *testing.T) {
	d := newSQLite(t)
	ctx := context.Background()
	require.NoError(t, d.Seed(ctx, entries))

	require.NoError(t, d.Unwatch(ctx, "ana", "VALE3"))
	require.NoError(t, d.Watch(ctx, "bruno", "WEGE3"))
	require.NoError(t, d.UpsertSubscriber(ctx, "carla", "Carla", false))
	require.NoError(t, d.Watch(ctx, "carla", "ABEV3"))

	subs, err := d.ActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2, "inactive subscribers are skipped")
	assert.Equal(t, []string{"PETR4"}, subs[0].Watchlist)
	assert.Equal(t, []string{"ITUB4", "WEGE3"}, subs[1].Watchlist)

	require.NoError(t, d.SetPosition(ctx, "ana", model.Position{Symbol: "PETR4", Quantity: 150, AvgPrice: 31}))
	require.NoError(t, d.SetPosition(ctx, "ana", model.Position{Symbol: "VALE3", Quantity: 10, AvgPrice: 60}))
	pf, err := d.PortfolioOf(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, []model.Position{
		{Symbol: "PETR4", Quantity: 150, AvgPrice: 31},
		{Symbol: "VALE3", Quantity: 10, AvgPrice: 60},
	}, pf)

	require.NoError(t, d.SetPosition(ctx, "ana", model.Position{Symbol: "PETR4"}))
	pf, err = d.PortfolioOf(ctx, "ana")
	require.NoError(t, err)
	assert.Len(t, pf, 1)
}

func TestSQLite_SubscriberWithoutWatchlist(t *testing.T) {
	d := newSQLite(t)
	ctx := context.Background()
	require.NoError(t, d.UpsertSubscriber(ctx, "dora", "Dora", true))

	subs, err := d.ActiveSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Nil(t, subs[0].Watchlist)
}
