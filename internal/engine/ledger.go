package engine

import "github.com/alanyoungcy/metaquote/internal/domain"

// Ledger holds one mutable copy of per-venue balances for the duration of a
// single planning run. It is constructed by deep-copying the caller's
// snapshot, so the engine never mutates shared state; a Ledger must not be
// shared across concurrent runs.
type Ledger struct {
	balances map[string]*domain.VenueBalance
}

// NewLedger deep-copies the given balance snapshot into a fresh Ledger.
func NewLedger(initial map[string]domain.VenueBalance) *Ledger {
	balances := make(map[string]*domain.VenueBalance, len(initial))
	for id, b := range initial {
		cp := b
		balances[id] = &cp
	}
	return &Ledger{balances: balances}
}

// Balance returns the venue's current balances. A venue the ledger does not
// know has zero capacity; ok is false and the caller skips its levels.
func (l *Ledger) Balance(venueID string) (domain.VenueBalance, bool) {
	b, ok := l.balances[venueID]
	if !ok {
		return domain.VenueBalance{}, false
	}
	return *b, true
}

// ApplyFill debits a venue for a fill: quote currency by amount*price on a
// buy, base asset by amount on a sell. The planner clamps takes to capacity
// before calling, so balances never go negative. The venue's post-fill
// balances are returned.
func (l *Ledger) ApplyFill(venueID string, amount, price float64, side domain.Side) domain.VenueBalance {
	b, ok := l.balances[venueID]
	if !ok {
		return domain.VenueBalance{}
	}
	if side == domain.SideBuy {
		b.Quote -= amount * price
		// A capacity-sized take computes amount as quote/price; the
		// round-trip can leave a sub-ulp negative residue.
		if b.Quote < 0 {
			b.Quote = 0
		}
	} else {
		b.Base -= amount
		if b.Base < 0 {
			b.Base = 0
		}
	}
	return *b
}
