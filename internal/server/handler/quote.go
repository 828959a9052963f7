package handler

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

// QuoteService defines the methods that the quote handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type QuoteService interface {
	Quote(ctx context.Context, amount float64, side domain.Side) (domain.QuoteRecord, error)
	Recent(ctx context.Context, opts domain.ListOpts) ([]domain.QuoteRecord, error)
	Reload(ctx context.Context) error
}

// QuoteHandler serves quote-related HTTP endpoints.
type QuoteHandler struct {
	quotes QuoteService
	logger *slog.Logger
}

// NewQuoteHandler creates a QuoteHandler with the given service and logger.
func NewQuoteHandler(quotes QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		quotes: quotes,
		logger: logHandler(logger, "quote"),
	}
}

// fillResponse is one venue's share of a quote, rounded for presentation.
type fillResponse struct {
	VenueID        string  `json:"venue_id"`
	FilledAmount   float64 `json:"filled_amount"`
	AveragePrice   float64 `json:"average_price"`
	RemainingBase  float64 `json:"remaining_base"`
	RemainingQuote float64 `json:"remaining_quote"`
}

// quoteResponse is the wire shape of a served quote.
type quoteResponse struct {
	ID              string         `json:"id"`
	Side            string         `json:"side"`
	RequestedAmount float64        `json:"requested_amount"`
	TotalFilled     float64        `json:"total_filled"`
	AveragePrice    float64        `json:"average_price"`
	TotalPrice      float64        `json:"total_price"`
	Fills           []fillResponse `json:"fills"`
	CreatedAt       time.Time      `json:"created_at"`
}

// round6 rounds to six decimal places. Amounts and prices are rounded only
// at the HTTP boundary; internal planning keeps full precision.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func toQuoteResponse(rec domain.QuoteRecord) quoteResponse {
	resp := quoteResponse{
		ID:              rec.ID,
		Side:            rec.Side.String(),
		RequestedAmount: rec.RequestedAmount,
		TotalFilled:     round6(rec.Plan.TotalFilled),
		AveragePrice:    round6(rec.Plan.AveragePrice),
		TotalPrice:      round6(rec.Plan.TotalPrice()),
		Fills:           make([]fillResponse, 0, len(rec.Plan.Fills)),
		CreatedAt:       rec.CreatedAt,
	}
	for _, f := range rec.Plan.Fills {
		resp.Fills = append(resp.Fills, fillResponse{
			VenueID:        f.VenueID,
			FilledAmount:   round6(f.FilledAmount),
			AveragePrice:   round6(f.AveragePrice),
			RemainingBase:  round6(f.RemainingBase),
			RemainingQuote: round6(f.RemainingQuote),
		})
	}
	return resp
}

// GetQuote plans the best execution for the requested amount and side.
// GET /api/quote?amount=1.5&side=buy
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}

	side, err := domain.ParseSide(q.Get("side"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}

	rec, err := h.quotes.Quote(r.Context(), amount, side)
	if err != nil {
		h.writeQuoteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuoteResponse(rec))
}

// ListRecent returns the most recently served quotes, newest first.
// GET /api/quotes/recent?limit=50&offset=0
func (h *QuoteHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	recs, err := h.quotes.Recent(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list recent quotes failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list recent quotes")
		return
	}

	resp := make([]quoteResponse, 0, len(recs))
	for _, rec := range recs {
		resp = append(resp, toQuoteResponse(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quotes": resp,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// Reload rebuilds the market snapshot from the configured data source.
// POST /api/reload
func (h *QuoteHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.quotes.Reload(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: snapshot reload failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "snapshot reload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *QuoteHandler) writeQuoteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "amount must be positive")
	case errors.Is(err, domain.ErrInvalidSide):
		writeError(w, http.StatusBadRequest, "side must be buy or sell")
	case errors.Is(err, domain.ErrNoLiquidity):
		writeError(w, http.StatusBadRequest, "no liquidity at requested size, try a lower amount")
	default:
		h.logger.ErrorContext(r.Context(), "handler: quote failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute quote")
	}
}
