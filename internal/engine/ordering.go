// Package engine implements the multi-venue execution planner: a greedy
// price-priority walk over pre-sorted venue price levels, clamped by each
// venue's remaining balance.
package engine

import (
	"sort"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

// FlattenBook extracts the levels of one venue's book for the given side:
// asks for a buy, bids for a sell. Entries with non-positive price or amount
// are dropped; valid input should not contain them, but the data file is not
// under our control.
func FlattenBook(book domain.VenueOrderBook, side domain.Side) []domain.PriceLevel {
	entries := book.Asks
	if side == domain.SideSell {
		entries = book.Bids
	}

	levels := make([]domain.PriceLevel, 0, len(entries))
	for _, e := range entries {
		if e.Order.Price <= 0 || e.Order.Amount <= 0 {
			continue
		}
		levels = append(levels, domain.PriceLevel{
			VenueID: book.VenueID,
			Price:   e.Order.Price,
			Amount:  e.Order.Amount,
		})
	}
	return levels
}

// SortLevels orders a flat level sequence for greedy matching, in place.
// Buy: ascending price (cheapest first); Sell: descending price (highest
// first). Ties on price are broken by descending amount so larger levels are
// exhausted first, touching fewer venues. Ties on both price and amount are
// broken by ascending venue id, which makes the ordering fully deterministic
// rather than dependent on venue enumeration order.
func SortLevels(levels []domain.PriceLevel, side domain.Side) {
	sort.SliceStable(levels, func(i, j int) bool {
		a, b := levels[i], levels[j]
		if a.Price != b.Price {
			if side == domain.SideBuy {
				return a.Price < b.Price
			}
			return a.Price > b.Price
		}
		if a.Amount != b.Amount {
			return a.Amount > b.Amount
		}
		return a.VenueID < b.VenueID
	})
}

// OrderedLevels flattens every venue's book for the given side and returns
// one globally price-prioritized sequence. It is a pure function of book
// content and may be computed once and reused across many planning runs.
func OrderedLevels(books []domain.VenueOrderBook, side domain.Side) []domain.PriceLevel {
	var levels []domain.PriceLevel
	for _, book := range books {
		levels = append(levels, FlattenBook(book, side)...)
	}
	SortLevels(levels, side)
	return levels
}
