package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/metaquote/internal/book"
	"github.com/alanyoungcy/metaquote/internal/domain"
	"github.com/alanyoungcy/metaquote/internal/engine"
)

// Broadcaster pushes quote events to connected websocket clients.
type Broadcaster interface {
	Broadcast(channel string, data any)
}

// QuoteService serves best-execution quotes against the currently loaded
// market snapshot. The snapshot is swapped atomically on reload, so quote
// runs in flight keep reading a consistent view.
type QuoteService struct {
	source    *book.Source
	store     domain.QuoteStore    // nil when persistence is disabled
	cache     domain.SnapshotCache // nil when redis is disabled
	broadcast Broadcaster          // nil when the ws hub is not wired
	logger    *slog.Logger

	snapshot atomic.Pointer[domain.MarketSnapshot]

	served       atomic.Int64
	noLiquidity  atomic.Int64
	invalidInput atomic.Int64
}

// NewQuoteService creates a QuoteService. store, cache, and broadcast are
// optional and may be nil.
func NewQuoteService(
	source *book.Source,
	store domain.QuoteStore,
	cache domain.SnapshotCache,
	broadcast Broadcaster,
	logger *slog.Logger,
) *QuoteService {
	return &QuoteService{
		source:    source,
		store:     store,
		cache:     cache,
		broadcast: broadcast,
		logger:    logger,
	}
}

// Reload builds a fresh snapshot from the source and swaps it in. When a
// snapshot cache is configured the new snapshot is written through to it; if
// the source itself fails, Reload falls back to the cached snapshot so a
// replica can still warm-start.
func (s *QuoteService) Reload(ctx context.Context) error {
	snap, err := s.source.Load(ctx)
	if err != nil {
		if s.cache == nil {
			return fmt.Errorf("quote_service: reload: %w", err)
		}
		s.logger.WarnContext(ctx, "quote_service: source load failed, trying cache",
			slog.String("error", err.Error()),
		)
		cached, cacheErr := s.cache.Get(ctx)
		if cacheErr != nil {
			return fmt.Errorf("quote_service: reload: %w", errors.Join(err, cacheErr))
		}
		s.snapshot.Store(&cached)
		return nil
	}

	s.snapshot.Store(&snap)

	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			// Non-fatal: the next successful reload writes through again.
			s.logger.WarnContext(ctx, "quote_service: snapshot cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// Quote plans the best execution of amount at the given side against the
// current snapshot. A partial fill is a valid quote; domain.ErrNoLiquidity
// means nothing could be filled at all.
func (s *QuoteService) Quote(ctx context.Context, amount float64, side domain.Side) (domain.QuoteRecord, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return domain.QuoteRecord{}, fmt.Errorf("quote_service: no snapshot loaded")
	}

	ledger := engine.NewLedger(snap.Balances)
	plan, err := engine.BuildPlan(amount, side, snap.Levels(side), ledger)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoLiquidity):
			s.noLiquidity.Add(1)
		case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidSide):
			s.invalidInput.Add(1)
		}
		return domain.QuoteRecord{}, err
	}

	rec := domain.QuoteRecord{
		ID:              uuid.NewString(),
		Side:            side,
		RequestedAmount: amount,
		Plan:            *plan,
		CreatedAt:       time.Now().UTC(),
	}
	s.served.Add(1)

	s.logger.InfoContext(ctx, "quote_service: quote served",
		slog.String("quote_id", rec.ID),
		slog.String("side", side.String()),
		slog.Float64("requested", amount),
		slog.Float64("filled", plan.TotalFilled),
		slog.Float64("average_price", plan.AveragePrice),
	)

	if s.store != nil {
		if err := s.store.Insert(ctx, rec); err != nil {
			// Non-fatal: the quote is already computed and returned.
			s.logger.WarnContext(ctx, "quote_service: persist quote failed",
				slog.String("quote_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.broadcast != nil {
		s.broadcast.Broadcast("quotes", rec)
	}

	return rec, nil
}

// Recent returns the most recently persisted quotes, newest first. Returns
// an empty slice when persistence is disabled.
func (s *QuoteService) Recent(ctx context.Context, opts domain.ListOpts) ([]domain.QuoteRecord, error) {
	if s.store == nil {
		return []domain.QuoteRecord{}, nil
	}
	recs, err := s.store.ListRecent(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("quote_service: list recent: %w", err)
	}
	return recs, nil
}

// Status summarises the loaded snapshot and lifetime quote counters.
func (s *QuoteService) Status() domain.SnapshotStatus {
	st := domain.SnapshotStatus{
		QuotesServed: s.served.Load(),
		NoLiquidity:  s.noLiquidity.Load(),
		InvalidInput: s.invalidInput.Load(),
	}
	if snap := s.snapshot.Load(); snap != nil {
		st.VenueCount = snap.VenueCount
		st.AskLevels = len(snap.Asks)
		st.BidLevels = len(snap.Bids)
		st.LoadedAt = snap.LoadedAt
	}
	return st
}
