package model

import "time"

// CacheEntryStats summarizes one cache entry for observability.
type CacheEntryStats struct {
	Symbol          string        `json:"symbol"`
	SubscriberCount int           `json:"subscriber_count"`
	ComputedAt      time.Time     `json:"computed_at"`
	RSI             float64       `json:"rsi"`
	CurrentSignal   CurrentSignal `json:"current_position"`
	NewSignal       NewSignal     `json:"new_position"`
}

// CacheStats is the snapshot returned by the cache.
type CacheStats struct {
	Size        int               `json:"size"`
	LastCycleAt time.Time         `json:"last_cycle_at"`
	Entries     []CacheEntryStats `json:"entries"`
}
