package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alanyoungcy/metaquote/internal/book"
	"github.com/alanyoungcy/metaquote/internal/domain"
)

const tol = 1e-9

func approx(got, want float64) bool {
	return math.Abs(got-want) <= tol
}

const sampleData = "1548759600.25189\t" +
	`{"AcqTime":"2019-01-29T11:00:00.2518854Z","Bids":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Buy","Kind":"Limit","Amount":3.0,"Price":2900.0}},{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Buy","Kind":"Limit","Amount":0.1,"Price":2870.0}}],"Asks":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Sell","Kind":"Limit","Amount":0.2,"Price":3000.0}},{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Sell","Kind":"Limit","Amount":0.62,"Price":3300.0}}]}` + "\n" +
	"1548759601.33694\t" +
	`{"AcqTime":"2019-01-29T11:00:01.3369437Z","Bids":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Buy","Kind":"Limit","Amount":0.8,"Price":2880.0}},{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Buy","Kind":"Limit","Amount":1.5,"Price":2820.0}}],"Asks":[{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Sell","Kind":"Limit","Amount":0.7,"Price":3100.0}},{"Order":{"Id":null,"Time":"0001-01-01T00:00:00","Type":"Sell","Kind":"Limit","Amount":1.2,"Price":3200.0}}]}` + "\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSampleData(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "order_books_data")
	if err := os.WriteFile(path, []byte(sampleData), 0o644); err != nil {
		t.Fatalf("write sample data: %v", err)
	}
	return path
}

func newTestService(t *testing.T, base, quote float64, store domain.QuoteStore, cache domain.SnapshotCache) *QuoteService {
	t.Helper()
	logger := testLogger()
	policy := book.BalancePolicy{Mode: "fixed", Base: base, Quote: quote}
	source := book.NewFileSource(book.NewLoader(logger), policy, writeSampleData(t), logger)
	svc := NewQuoteService(source, store, cache, nil, logger)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc
}

type memStore struct {
	records []domain.QuoteRecord
	insErr  error
}

func (m *memStore) Insert(ctx context.Context, rec domain.QuoteRecord) error {
	if m.insErr != nil {
		return m.insErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.QuoteRecord, error) {
	out := make([]domain.QuoteRecord, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

type memCache struct {
	snap *domain.MarketSnapshot
}

func (m *memCache) Set(ctx context.Context, snap domain.MarketSnapshot) error {
	m.snap = &snap
	return nil
}

func (m *memCache) Get(ctx context.Context) (domain.MarketSnapshot, error) {
	if m.snap == nil {
		return domain.MarketSnapshot{}, domain.ErrNotFound
	}
	return *m.snap, nil
}

func TestQuoteBuyAcrossVenues(t *testing.T) {
	svc := newTestService(t, 10, 50000, nil, nil)

	rec, err := svc.Quote(context.Background(), 2.0, domain.SideBuy)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected a quote id")
	}
	if !approx(rec.Plan.TotalFilled, 2.0) {
		t.Errorf("TotalFilled = %v, want 2.0", rec.Plan.TotalFilled)
	}
	if !approx(rec.Plan.AveragePrice, 3145.0) {
		t.Errorf("AveragePrice = %v, want 3145.0", rec.Plan.AveragePrice)
	}
	if len(rec.Plan.Fills) != 2 {
		t.Fatalf("fills = %d, want 2", len(rec.Plan.Fills))
	}
}

func TestQuoteSharedSnapshotIsNotMutated(t *testing.T) {
	svc := newTestService(t, 10, 50000, nil, nil)

	first, err := svc.Quote(context.Background(), 2.0, domain.SideBuy)
	if err != nil {
		t.Fatalf("first Quote: %v", err)
	}
	second, err := svc.Quote(context.Background(), 2.0, domain.SideBuy)
	if err != nil {
		t.Fatalf("second Quote: %v", err)
	}
	if !approx(first.Plan.AveragePrice, second.Plan.AveragePrice) {
		t.Errorf("repeat quote diverged: %v vs %v", first.Plan.AveragePrice, second.Plan.AveragePrice)
	}
}

func TestQuoteNoLiquidity(t *testing.T) {
	svc := newTestService(t, 10, 0, nil, nil)

	_, err := svc.Quote(context.Background(), 1.0, domain.SideBuy)
	if !errors.Is(err, domain.ErrNoLiquidity) {
		t.Fatalf("err = %v, want ErrNoLiquidity", err)
	}

	st := svc.Status()
	if st.NoLiquidity != 1 {
		t.Errorf("NoLiquidity counter = %d, want 1", st.NoLiquidity)
	}
	if st.QuotesServed != 0 {
		t.Errorf("QuotesServed = %d, want 0", st.QuotesServed)
	}
}

func TestQuoteInvalidInput(t *testing.T) {
	svc := newTestService(t, 10, 50000, nil, nil)

	if _, err := svc.Quote(context.Background(), -1, domain.SideBuy); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative amount: err = %v, want ErrInvalidAmount", err)
	}
	if _, err := svc.Quote(context.Background(), 1, domain.Side(0)); !errors.Is(err, domain.ErrInvalidSide) {
		t.Errorf("zero side: err = %v, want ErrInvalidSide", err)
	}

	if st := svc.Status(); st.InvalidInput != 2 {
		t.Errorf("InvalidInput counter = %d, want 2", st.InvalidInput)
	}
}

func TestQuotePersistsToStore(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, 10, 50000, store, nil)

	rec, err := svc.Quote(context.Background(), 0.5, domain.SideSell)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("stored records = %d, want 1", len(store.records))
	}
	if store.records[0].ID != rec.ID {
		t.Errorf("stored id = %s, want %s", store.records[0].ID, rec.ID)
	}

	recent, err := svc.Recent(context.Background(), domain.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != rec.ID {
		t.Errorf("Recent returned %+v, want the stored quote", recent)
	}
}

func TestQuoteStoreFailureIsNonFatal(t *testing.T) {
	store := &memStore{insErr: errors.New("db down")}
	svc := newTestService(t, 10, 50000, store, nil)

	if _, err := svc.Quote(context.Background(), 0.5, domain.SideSell); err != nil {
		t.Fatalf("Quote should succeed despite store failure, got %v", err)
	}
}

func TestRecentWithoutStore(t *testing.T) {
	svc := newTestService(t, 10, 50000, nil, nil)

	recent, err := svc.Recent(context.Background(), domain.ListOpts{})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Recent = %d records, want 0", len(recent))
	}
}

func TestReloadWritesThroughToCache(t *testing.T) {
	cache := &memCache{}
	newTestService(t, 10, 50000, nil, cache)

	if cache.snap == nil {
		t.Fatal("expected snapshot written to cache")
	}
	if cache.snap.VenueCount != 2 {
		t.Errorf("cached VenueCount = %d, want 2", cache.snap.VenueCount)
	}
}

func TestReloadFallsBackToCachedSnapshot(t *testing.T) {
	logger := testLogger()
	policy := book.BalancePolicy{Mode: "fixed", Base: 10, Quote: 50000}

	cache := &memCache{}
	good := book.NewFileSource(book.NewLoader(logger), policy, writeSampleData(t), logger)
	warm := NewQuoteService(good, nil, nil, nil, logger)
	if err := warm.Reload(context.Background()); err != nil {
		t.Fatalf("warm Reload: %v", err)
	}
	snap, err := good.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cache.Set(context.Background(), snap); err != nil {
		t.Fatalf("cache Set: %v", err)
	}

	bad := book.NewFileSource(book.NewLoader(logger), policy, filepath.Join(t.TempDir(), "missing"), logger)
	svc := NewQuoteService(bad, nil, cache, nil, logger)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload should fall back to cache, got %v", err)
	}

	rec, err := svc.Quote(context.Background(), 1.0, domain.SideSell)
	if err != nil {
		t.Fatalf("Quote after fallback: %v", err)
	}
	if !approx(rec.Plan.AveragePrice, 2900.0) {
		t.Errorf("AveragePrice = %v, want 2900.0", rec.Plan.AveragePrice)
	}
}

func TestReloadFailsWithoutCache(t *testing.T) {
	logger := testLogger()
	policy := book.BalancePolicy{Mode: "fixed", Base: 10, Quote: 50000}
	bad := book.NewFileSource(book.NewLoader(logger), policy, filepath.Join(t.TempDir(), "missing"), logger)
	svc := NewQuoteService(bad, nil, nil, nil, logger)

	if err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected Reload to fail with no source and no cache")
	}
}

func TestStatusReflectsSnapshot(t *testing.T) {
	svc := newTestService(t, 10, 50000, nil, nil)

	st := svc.Status()
	if st.VenueCount != 2 {
		t.Errorf("VenueCount = %d, want 2", st.VenueCount)
	}
	if st.AskLevels != 4 || st.BidLevels != 4 {
		t.Errorf("levels = %d/%d, want 4/4", st.AskLevels, st.BidLevels)
	}
	if st.LoadedAt.IsZero() {
		t.Error("LoadedAt should be set")
	}
}
