package domain

// PriceLevel is one resting order exposed by one venue at one price. Levels
// are immutable once produced; many levels may share a VenueID.
type PriceLevel struct {
	VenueID string  `json:"venue_id"`
	Price   float64 `json:"price"`
	Amount  float64 `json:"amount"`
}

// VenueBalance is a venue's tradable capacity at the start of a planning
// run: base-asset quantity (constrains sells) and quote-currency quantity
// (constrains buys).
type VenueBalance struct {
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

// VenueFill is the running per-venue aggregation produced by a planning run.
// AveragePrice is the volume-weighted mean over all fills at this venue;
// RemainingBase/RemainingQuote reflect the venue's balances immediately
// after its most recent fill.
type VenueFill struct {
	VenueID        string  `json:"venue_id"`
	FilledAmount   float64 `json:"filled_amount"`
	AveragePrice   float64 `json:"average_price"`
	RemainingBase  float64 `json:"remaining_base"`
	RemainingQuote float64 `json:"remaining_quote"`
}

// ExecutionPlan is the immutable result of one planning run. Fills are in
// the order venues were first touched. TotalFilled may be below the
// requested amount when aggregate liquidity is insufficient; a run that
// fills nothing yields no plan at all (ErrNoLiquidity), never a zero plan.
type ExecutionPlan struct {
	TotalFilled  float64     `json:"total_filled"`
	AveragePrice float64     `json:"average_price"`
	Fills        []VenueFill `json:"fills"`
}

// TotalPrice returns the quote-currency value of the whole plan.
func (p ExecutionPlan) TotalPrice() float64 {
	return p.TotalFilled * p.AveragePrice
}
