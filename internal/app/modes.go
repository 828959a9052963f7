package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/metaquote/internal/book"
	"github.com/alanyoungcy/metaquote/internal/domain"
	"github.com/alanyoungcy/metaquote/internal/server"
	"github.com/alanyoungcy/metaquote/internal/server/handler"
	"github.com/alanyoungcy/metaquote/internal/server/ws"
	"github.com/alanyoungcy/metaquote/internal/service"
)

// buildSource constructs the snapshot source from the configured data
// location. The s3 source requires a wired blob reader.
func (a *App) buildSource(deps *Dependencies) (*book.Source, error) {
	loader := book.NewLoader(a.logger)
	loader.MaxVenues = a.cfg.Data.MaxVenues

	policy := book.BalancePolicy{
		Mode:     a.cfg.Balances.Mode,
		Base:     a.cfg.Balances.Base,
		Quote:    a.cfg.Balances.Quote,
		MinBase:  a.cfg.Balances.MinBase,
		MaxBase:  a.cfg.Balances.MaxBase,
		MinQuote: a.cfg.Balances.MinQuote,
		MaxQuote: a.cfg.Balances.MaxQuote,
		Seed:     a.cfg.Balances.Seed,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if a.cfg.Data.Source == "s3" {
		if deps.BlobReader == nil {
			return nil, errors.New("app: s3 data source requires blob storage")
		}
		return book.NewBlobSource(loader, policy, a.cfg.Data.Path, deps.BlobReader, a.logger), nil
	}
	return book.NewFileSource(loader, policy, a.cfg.Data.Path, a.logger), nil
}

// ServeMode loads the initial snapshot and runs the HTTP + WebSocket API
// until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	source, err := a.buildSource(deps)
	if err != nil {
		return fmt.Errorf("serve mode: %w", err)
	}

	hub := ws.NewHub(a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})

	quoteSvc := service.NewQuoteService(source, deps.QuoteStore, deps.SnapshotCache, hub, a.logger)
	if err := quoteSvc.Reload(ctx); err != nil {
		return fmt.Errorf("serve mode: initial snapshot load: %w", err)
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
			RateLimiter: deps.RateLimiter,
			RateLimit:   a.cfg.Server.RateLimit,
			RateWindow:  a.cfg.Server.RateWindow.Duration,
		},
		server.Handlers{
			Health: handler.NewHealthHandler(a.logger),
			Status: handler.NewStatusHandler(quoteSvc, a.cfg.Mode),
			Quotes: handler.NewQuoteHandler(quoteSvc, a.logger),
			Trades: handler.NewTradeHandler(),
		},
		hub,
		a.logger,
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := hub.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve mode: %w", err)
	}
	return nil
}

// QuoteMode loads the snapshot once, plans the configured order, prints the
// plan to stdout, and exits.
func (a *App) QuoteMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting quote mode")

	source, err := a.buildSource(deps)
	if err != nil {
		return fmt.Errorf("quote mode: %w", err)
	}

	side, err := domain.ParseSide(a.cfg.Quote.Side)
	if err != nil {
		return fmt.Errorf("quote mode: %w", err)
	}

	quoteSvc := service.NewQuoteService(source, deps.QuoteStore, deps.SnapshotCache, nil, a.logger)
	if err := quoteSvc.Reload(ctx); err != nil {
		return fmt.Errorf("quote mode: snapshot load: %w", err)
	}

	rec, err := quoteSvc.Quote(ctx, a.cfg.Quote.Amount, side)
	if err != nil {
		if errors.Is(err, domain.ErrNoLiquidity) {
			fmt.Fprintln(os.Stdout, "no liquidity at requested size, try a lower amount")
			return nil
		}
		return fmt.Errorf("quote mode: %w", err)
	}

	printPlan(os.Stdout, rec, a.cfg.BaseAsset, a.cfg.QuoteCurrency)
	return nil
}

// printPlan writes a human-readable execution plan, rounded the same way the
// HTTP layer rounds.
func printPlan(w io.Writer, rec domain.QuoteRecord, base, quote string) {
	r6 := func(v float64) float64 { return math.Round(v*1e6) / 1e6 }

	fmt.Fprintf(w, "%s %v %s: filled %v at average price %v %s (total %v %s)\n",
		rec.Side, rec.RequestedAmount, base,
		r6(rec.Plan.TotalFilled), r6(rec.Plan.AveragePrice), quote,
		r6(rec.Plan.TotalPrice()), quote,
	)
	for _, f := range rec.Plan.Fills {
		fmt.Fprintf(w, "  venue %s: %v %s at average price %v %s\n",
			f.VenueID, r6(f.FilledAmount), base, r6(f.AveragePrice), quote,
		)
	}
	if rec.Plan.TotalFilled < rec.RequestedAmount {
		fmt.Fprintf(w, "  note: only %v of %v %s could be filled\n",
			r6(rec.Plan.TotalFilled), rec.RequestedAmount, base,
		)
	}
}
