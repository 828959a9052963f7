package book

import (
	"fmt"
	"math/rand"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

// BalancePolicy controls how per-venue starting balances are produced. The
// data file carries no balance information, so balances are synthesized:
// either the same fixed pair for every venue, or seeded-random values within
// a range. Tests should always use literal fixed balances.
type BalancePolicy struct {
	// Mode is "fixed" or "random".
	Mode string

	// Fixed-mode balances.
	Base  float64
	Quote float64

	// Random-mode ranges, inclusive of Min, exclusive of Max.
	MinBase  float64
	MaxBase  float64
	MinQuote float64
	MaxQuote float64

	// Seed makes random balances reproducible across restarts.
	Seed int64
}

// Validate checks the policy for internal consistency.
func (p BalancePolicy) Validate() error {
	switch p.Mode {
	case "fixed":
		if p.Base < 0 || p.Quote < 0 {
			return fmt.Errorf("book: fixed balances must be non-negative")
		}
	case "random":
		if p.MinBase < 0 || p.MinQuote < 0 {
			return fmt.Errorf("book: random balance ranges must be non-negative")
		}
		if p.MaxBase < p.MinBase || p.MaxQuote < p.MinQuote {
			return fmt.Errorf("book: random balance ranges are inverted")
		}
	default:
		return fmt.Errorf("book: unknown balance mode %q", p.Mode)
	}
	return nil
}

// GenerateBalances produces the starting balance for every venue in books
// according to the policy.
func GenerateBalances(books []domain.VenueOrderBook, policy BalancePolicy) (map[string]domain.VenueBalance, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	balances := make(map[string]domain.VenueBalance, len(books))

	if policy.Mode == "fixed" {
		for _, b := range books {
			balances[b.VenueID] = domain.VenueBalance{Base: policy.Base, Quote: policy.Quote}
		}
		return balances, nil
	}

	rng := rand.New(rand.NewSource(policy.Seed))
	for _, b := range books {
		balances[b.VenueID] = domain.VenueBalance{
			Base:  policy.MinBase + rng.Float64()*(policy.MaxBase-policy.MinBase),
			Quote: policy.MinQuote + rng.Float64()*(policy.MaxQuote-policy.MinQuote),
		}
	}
	return balances, nil
}
