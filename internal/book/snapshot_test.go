package book

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

func TestBuildSnapshotSortsBothSides(t *testing.T) {
	books, err := NewLoader(testLogger()).Load(context.Background(), strings.NewReader(sampleData))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	balances := map[string]domain.VenueBalance{
		"1548759600.25189": {Base: 10, Quote: 10000},
		"1548759601.33694": {Base: 10, Quote: 10000},
	}
	snap, err := BuildSnapshot(context.Background(), books, balances)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}

	if snap.VenueCount != 2 {
		t.Errorf("VenueCount = %d, want 2", snap.VenueCount)
	}
	if len(snap.Asks) != 3 || len(snap.Bids) != 2 {
		t.Fatalf("level counts: %d asks, %d bids", len(snap.Asks), len(snap.Bids))
	}
	if snap.Asks[0].Price != 3000.0 {
		t.Errorf("best ask = %v, want 3000", snap.Asks[0].Price)
	}
	if snap.Bids[0].Price != 2900.0 {
		t.Errorf("best bid = %v, want 2900", snap.Bids[0].Price)
	}
	if snap.LoadedAt.IsZero() {
		t.Error("LoadedAt not set")
	}
}

func TestCloneBalancesIsIndependent(t *testing.T) {
	snap := domain.MarketSnapshot{
		Balances: map[string]domain.VenueBalance{"v": {Base: 1, Quote: 2}},
	}
	clone := snap.CloneBalances()
	clone["v"] = domain.VenueBalance{Base: 0, Quote: 0}

	if snap.Balances["v"].Base != 1 {
		t.Errorf("snapshot balances mutated through clone: %+v", snap.Balances["v"])
	}
}

func TestGenerateBalancesFixed(t *testing.T) {
	books := []domain.VenueOrderBook{{VenueID: "a"}, {VenueID: "b"}}
	balances, err := GenerateBalances(books, BalancePolicy{Mode: "fixed", Base: 5, Quote: 5000})
	if err != nil {
		t.Fatalf("GenerateBalances: %v", err)
	}
	for _, id := range []string{"a", "b"} {
		if b := balances[id]; b.Base != 5 || b.Quote != 5000 {
			t.Errorf("balance[%s] = %+v", id, b)
		}
	}
}

func TestGenerateBalancesRandomIsSeededAndBounded(t *testing.T) {
	books := []domain.VenueOrderBook{{VenueID: "a"}, {VenueID: "b"}, {VenueID: "c"}}
	policy := BalancePolicy{
		Mode: "random", Seed: 42,
		MinBase: 1, MaxBase: 10,
		MinQuote: 1000, MaxQuote: 50000,
	}

	first, err := GenerateBalances(books, policy)
	if err != nil {
		t.Fatalf("GenerateBalances: %v", err)
	}
	second, err := GenerateBalances(books, policy)
	if err != nil {
		t.Fatalf("GenerateBalances: %v", err)
	}

	for id, b := range first {
		if b.Base < 1 || b.Base >= 10 || b.Quote < 1000 || b.Quote >= 50000 {
			t.Errorf("balance[%s] = %+v outside configured range", id, b)
		}
		if second[id] != b {
			t.Errorf("same seed produced different balances for %s", id)
		}
	}
}

func TestGenerateBalancesRejectsBadPolicy(t *testing.T) {
	books := []domain.VenueOrderBook{{VenueID: "a"}}
	for _, policy := range []BalancePolicy{
		{Mode: "coinflip"},
		{Mode: "fixed", Base: -1},
		{Mode: "random", MinBase: 5, MaxBase: 1},
	} {
		if _, err := GenerateBalances(books, policy); err == nil {
			t.Errorf("policy %+v should be rejected", policy)
		}
	}
}

func TestFileSourceLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "order_books_data")
	if err := os.WriteFile(path, []byte(sampleData), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(NewLoader(testLogger()), BalancePolicy{Mode: "fixed", Base: 1, Quote: 1000}, path, testLogger())
	snap, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.VenueCount != 2 || len(snap.Balances) != 2 {
		t.Errorf("snapshot = %d venues, %d balances", snap.VenueCount, len(snap.Balances))
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(NewLoader(testLogger()), BalancePolicy{Mode: "fixed"}, "/does/not/exist", testLogger())
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
