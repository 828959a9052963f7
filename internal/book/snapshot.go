package book

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/metaquote/internal/domain"
	"github.com/alanyoungcy/metaquote/internal/engine"
)

// sideLevels holds one venue's flattened levels for both sides.
type sideLevels struct {
	asks []domain.PriceLevel
	bids []domain.PriceLevel
}

// BuildSnapshot flattens and sorts every venue's book into the global
// price-priority sequences and attaches the balance map. Flattening runs in
// parallel across venues (no cross-venue dependency); the final total
// ordering is a single stable sort per side.
func BuildSnapshot(ctx context.Context, books []domain.VenueOrderBook, balances map[string]domain.VenueBalance) (domain.MarketSnapshot, error) {
	perVenue := make([]sideLevels, len(books))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, b := range books {
		i, b := i, b
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			perVenue[i] = sideLevels{
				asks: engine.FlattenBook(b, domain.SideBuy),
				bids: engine.FlattenBook(b, domain.SideSell),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("book: flatten orderbooks: %w", err)
	}

	var asks, bids []domain.PriceLevel
	for _, v := range perVenue {
		asks = append(asks, v.asks...)
		bids = append(bids, v.bids...)
	}
	engine.SortLevels(asks, domain.SideBuy)
	engine.SortLevels(bids, domain.SideSell)

	return domain.MarketSnapshot{
		Asks:       asks,
		Bids:       bids,
		Balances:   balances,
		VenueCount: len(books),
		LoadedAt:   time.Now().UTC(),
	}, nil
}

// Source produces a fresh MarketSnapshot from wherever the data file lives.
type Source struct {
	loader *Loader
	policy BalancePolicy
	path   string
	blob   domain.BlobReader // nil when reading from the local filesystem
	logger *slog.Logger
}

// NewFileSource builds snapshots from a local data file.
func NewFileSource(loader *Loader, policy BalancePolicy, path string, logger *slog.Logger) *Source {
	return &Source{
		loader: loader,
		policy: policy,
		path:   path,
		logger: logger.With(slog.String("component", "snapshot_source")),
	}
}

// NewBlobSource builds snapshots from an object in blob storage.
func NewBlobSource(loader *Loader, policy BalancePolicy, key string, blob domain.BlobReader, logger *slog.Logger) *Source {
	s := NewFileSource(loader, policy, key, logger)
	s.blob = blob
	return s
}

// Load reads the data, decodes the books, synthesizes balances, and builds
// the precomputed snapshot.
func (s *Source) Load(ctx context.Context) (domain.MarketSnapshot, error) {
	start := time.Now()

	var (
		r   io.ReadCloser
		err error
	)
	if s.blob != nil {
		r, err = s.blob.Get(ctx, s.path)
	} else {
		r, err = os.Open(s.path)
	}
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("book: open snapshot source %q: %w", s.path, err)
	}
	defer r.Close()

	books, err := s.loader.Load(ctx, r)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	balances, err := GenerateBalances(books, s.policy)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	snap, err := BuildSnapshot(ctx, books, balances)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}

	s.logger.Info("snapshot loaded",
		slog.Int("venues", snap.VenueCount),
		slog.Int("ask_levels", len(snap.Asks)),
		slog.Int("bid_levels", len(snap.Bids)),
		slog.Duration("took", time.Since(start)),
	)
	return snap, nil
}
