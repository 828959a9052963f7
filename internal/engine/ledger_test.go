package engine

import (
	"testing"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

func TestLedgerCopiesSnapshot(t *testing.T) {
	initial := map[string]domain.VenueBalance{"v": {Base: 5, Quote: 1000}}
	ledger := NewLedger(initial)

	ledger.ApplyFill("v", 2, 100, domain.SideSell)

	if initial["v"].Base != 5 {
		t.Errorf("source snapshot mutated: %+v", initial["v"])
	}
	b, ok := ledger.Balance("v")
	if !ok {
		t.Fatal("venue v missing from ledger")
	}
	if b.Base != 3 {
		t.Errorf("Base = %v, want 3", b.Base)
	}
	if b.Quote != 1000 {
		t.Errorf("Quote = %v, want 1000 (sell must not touch quote)", b.Quote)
	}
}

func TestLedgerBuyDebitsQuote(t *testing.T) {
	ledger := NewLedger(map[string]domain.VenueBalance{"v": {Base: 5, Quote: 1000}})

	after := ledger.ApplyFill("v", 2, 100, domain.SideBuy)

	if after.Quote != 800 {
		t.Errorf("Quote = %v, want 800", after.Quote)
	}
	if after.Base != 5 {
		t.Errorf("Base = %v, want 5 (buy must not touch base)", after.Base)
	}
}

func TestLedgerUnknownVenue(t *testing.T) {
	ledger := NewLedger(nil)
	if _, ok := ledger.Balance("ghost"); ok {
		t.Error("unknown venue should report ok=false")
	}
	// ApplyFill on an unknown venue is a no-op, not a panic.
	if b := ledger.ApplyFill("ghost", 1, 1, domain.SideBuy); b != (domain.VenueBalance{}) {
		t.Errorf("unexpected balance %+v", b)
	}
}

func TestLedgerClampsResidue(t *testing.T) {
	// take = quote/price followed by quote -= take*price can round below
	// zero by an ulp; the ledger must clamp it.
	quote := 1900.0
	price := 3300.0
	ledger := NewLedger(map[string]domain.VenueBalance{"v": {Quote: quote}})

	after := ledger.ApplyFill("v", quote/price, price, domain.SideBuy)
	if after.Quote < 0 {
		t.Errorf("Quote = %v, want >= 0", after.Quote)
	}
}
