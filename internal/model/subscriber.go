package model

import "time"

// Subscriber is an active user watching a set of instruments.
type Subscriber struct {
	ID        string
	Name      string
	Watchlist []string
}

// Position is a holding in a subscriber's portfolio.
type Position struct {
	Symbol   string
	Quantity float64
	AvgPrice float64
}

// PnL returns the unrealized profit and its percentage at the given price.
func (p Position) PnL(price float64) (amount, pct float64) {
	invested := p.Quantity * p.AvgPrice
	amount = p.Quantity*price - invested
	if invested != 0 {
		pct = amount / invested * 100
	}
	return amount, pct
}

// SignalItem pairs an analysis with the subscriber's position, if any.
type SignalItem struct {
	Analysis AnalysisResult
	Position *Position
}

// Digest is the per-subscriber payload handed to the notifier after a cycle.
type Digest struct {
	CycleID     string
	Subscriber  Subscriber
	BuySignals  []SignalItem
	SellSignals []SignalItem
	Analyses    []AnalysisResult
	Errors      []string
	GeneratedAt time.Time
}

// Empty reports whether there is nothing worth sending.
func (d *Digest) Empty() bool {
	return len(d.BuySignals) == 0 && len(d.SellSignals) == 0 && len(d.Analyses) == 0
}
