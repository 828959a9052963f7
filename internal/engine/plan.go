package engine

import (
	"fmt"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

// BuildPlan allocates target across the pre-sorted levels in a single
// forward pass, greedily taking from each level up to the smaller of the
// level's amount, the unfilled remainder, and the venue's balance capacity
// at that price. The greedy walk is optimal here: capacity only shrinks as
// the scan proceeds, so once a venue is exhausted, later (worse-priced)
// levels are correctly preferred over revisiting it.
//
// levels must already be ordered for side (see SortLevels); ledger must be a
// fresh per-run copy. Returns domain.ErrNoLiquidity when nothing could be
// filled at all. A partial fill below target is a valid plan, not an error.
func BuildPlan(target float64, side domain.Side, levels []domain.PriceLevel, ledger *Ledger) (*domain.ExecutionPlan, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: target %v must be positive", domain.ErrInvalidAmount, target)
	}
	if !side.Valid() {
		return nil, domain.ErrInvalidSide
	}

	remaining := target
	totalCost := 0.0
	totalFilled := 0.0

	fills := make(map[string]*domain.VenueFill)
	var touched []string // venue ids in first-touched order

	for _, level := range levels {
		if remaining <= 0 {
			break
		}
		if level.Amount <= 0 || level.Price <= 0 {
			continue
		}

		balance, known := ledger.Balance(level.VenueID)
		if !known {
			continue
		}

		// Capacity at this price: how much the venue can still fill.
		capacity := balance.Base
		if side == domain.SideBuy {
			capacity = balance.Quote / level.Price
		}

		take := min(level.Amount, remaining, capacity)
		if take <= 0 {
			// Venue balance exhausted at this price; later levels at worse
			// prices take over.
			continue
		}

		totalCost += take * level.Price
		totalFilled += take
		remaining -= take

		after := ledger.ApplyFill(level.VenueID, take, level.Price, side)

		fill, ok := fills[level.VenueID]
		if !ok {
			fill = &domain.VenueFill{VenueID: level.VenueID}
			fills[level.VenueID] = fill
			touched = append(touched, level.VenueID)
		}

		// Incremental volume-weighted mean; reduces to level.Price on the
		// venue's first fill.
		filled := fill.FilledAmount + take
		fill.AveragePrice = (fill.AveragePrice*fill.FilledAmount + take*level.Price) / filled
		fill.FilledAmount = filled
		fill.RemainingBase = after.Base
		fill.RemainingQuote = after.Quote
	}

	if totalFilled == 0 {
		return nil, domain.ErrNoLiquidity
	}

	plan := &domain.ExecutionPlan{
		TotalFilled:  totalFilled,
		AveragePrice: totalCost / totalFilled,
		Fills:        make([]domain.VenueFill, 0, len(touched)),
	}
	for _, id := range touched {
		plan.Fills = append(plan.Fills, *fills[id])
	}
	return plan, nil
}
