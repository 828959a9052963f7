package domain

import "time"

// QuoteRecord is one served quote: the request parameters plus the resulting
// execution plan. Persisted for audit and exposed on the recent-quotes
// endpoint.
type QuoteRecord struct {
	ID              string        `json:"id"`
	Side            Side          `json:"-"`
	RequestedAmount float64       `json:"requested_amount"`
	Plan            ExecutionPlan `json:"plan"`
	CreatedAt       time.Time     `json:"created_at"`
}

// SnapshotStatus summarises the currently loaded market snapshot and quote
// counters for the status endpoint.
type SnapshotStatus struct {
	VenueCount    int       `json:"venue_count"`
	AskLevels     int       `json:"ask_levels"`
	BidLevels     int       `json:"bid_levels"`
	LoadedAt      time.Time `json:"loaded_at"`
	QuotesServed  int64     `json:"quotes_served"`
	NoLiquidity   int64     `json:"no_liquidity"`
	InvalidInput  int64     `json:"invalid_input"`
}

// ListOpts carries standard pagination parameters.
type ListOpts struct {
	Limit  int
	Offset int
}
