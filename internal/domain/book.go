package domain

import "time"

// VenueOrderBook is one venue's orderbook snapshot as decoded from the
// snapshot data file. Field names and nesting match the file's JSON, where
// every bid/ask is wrapped in an object holding a single "Order".
type VenueOrderBook struct {
	VenueID string      `json:"-"`
	AcqTime time.Time   `json:"AcqTime"`
	Bids    []BookEntry `json:"Bids"`
	Asks    []BookEntry `json:"Asks"`
}

// BookEntry is the wrapper object around a single order in the data file.
type BookEntry struct {
	Order BookOrder `json:"Order"`
}

// BookOrder is a resting limit order as stored in the data file.
type BookOrder struct {
	ID     string    `json:"Id"`
	Time   time.Time `json:"Time"`
	Type   string    `json:"Type"`
	Kind   string    `json:"Kind"`
	Amount float64   `json:"Amount"`
	Price  float64   `json:"Price"`
}

// MarketSnapshot is the precomputed, read-only bundle a quote run starts
// from: both sides' globally price-sorted levels plus per-venue starting
// balances. It is safe for concurrent reads; each run must clone the
// balances before mutating them.
type MarketSnapshot struct {
	Asks       []PriceLevel            `json:"asks"` // ascending price
	Bids       []PriceLevel            `json:"bids"` // descending price
	Balances   map[string]VenueBalance `json:"balances"`
	VenueCount int                     `json:"venue_count"`
	LoadedAt   time.Time               `json:"loaded_at"`
}

// Levels returns the price-prioritized sequence for the given side: asks for
// a buy, bids for a sell.
func (s *MarketSnapshot) Levels(side Side) []PriceLevel {
	if side == SideBuy {
		return s.Asks
	}
	return s.Bids
}

// CloneBalances returns a deep copy of the balance map for use as a
// run-private ledger.
func (s *MarketSnapshot) CloneBalances() map[string]VenueBalance {
	out := make(map[string]VenueBalance, len(s.Balances))
	for id, b := range s.Balances {
		out[id] = b
	}
	return out
}
