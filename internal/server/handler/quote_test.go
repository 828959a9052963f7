package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

type fakeQuoteService struct {
	rec       domain.QuoteRecord
	err       error
	recent    []domain.QuoteRecord
	reloadErr error

	lastAmount float64
	lastSide   domain.Side
}

func (f *fakeQuoteService) Quote(ctx context.Context, amount float64, side domain.Side) (domain.QuoteRecord, error) {
	f.lastAmount = amount
	f.lastSide = side
	if f.err != nil {
		return domain.QuoteRecord{}, f.err
	}
	return f.rec, nil
}

func (f *fakeQuoteService) Recent(ctx context.Context, opts domain.ListOpts) ([]domain.QuoteRecord, error) {
	return f.recent, nil
}

func (f *fakeQuoteService) Reload(ctx context.Context) error {
	return f.reloadErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRecord() domain.QuoteRecord {
	return domain.QuoteRecord{
		ID:              "q-1",
		Side:            domain.SideBuy,
		RequestedAmount: 2.0,
		Plan: domain.ExecutionPlan{
			TotalFilled:  2.0,
			AveragePrice: 3145.0,
			Fills: []domain.VenueFill{
				{VenueID: "venue-a", FilledAmount: 0.2, AveragePrice: 3000.0, RemainingQuote: 29400.0, RemainingBase: 10.0},
				{VenueID: "venue-b", FilledAmount: 1.8, AveragePrice: 3161.1111111111113, RemainingQuote: 44310.0, RemainingBase: 10.0},
			},
		},
		CreatedAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestGetQuote(t *testing.T) {
	svc := &fakeQuoteService{rec: sampleRecord()}
	h := NewQuoteHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/quote?amount=2&side=buy", nil)
	rr := httptest.NewRecorder()
	h.GetQuote(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rr.Code, rr.Body.String())
	}
	if svc.lastAmount != 2 || svc.lastSide != domain.SideBuy {
		t.Errorf("service called with amount=%v side=%v", svc.lastAmount, svc.lastSide)
	}

	var resp quoteResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "q-1" || resp.Side != "buy" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.AveragePrice != 3145.0 {
		t.Errorf("AveragePrice = %v, want 3145", resp.AveragePrice)
	}
	if resp.TotalPrice != 6290.0 {
		t.Errorf("TotalPrice = %v, want 6290", resp.TotalPrice)
	}
	if len(resp.Fills) != 2 {
		t.Fatalf("fills = %d, want 2", len(resp.Fills))
	}
	// Per-venue averages are rounded to six decimals at the boundary.
	if resp.Fills[1].AveragePrice != 3161.111111 {
		t.Errorf("fill average = %v, want 3161.111111", resp.Fills[1].AveragePrice)
	}
}

func TestGetQuoteBadParams(t *testing.T) {
	h := NewQuoteHandler(&fakeQuoteService{}, testLogger())

	cases := []struct {
		name  string
		query string
	}{
		{"missing amount", "side=buy"},
		{"non-numeric amount", "amount=abc&side=buy"},
		{"missing side", "amount=1"},
		{"bad side", "amount=1&side=hold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/quote?"+tc.query, nil)
			rr := httptest.NewRecorder()
			h.GetQuote(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestGetQuoteErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no liquidity", domain.ErrNoLiquidity, http.StatusBadRequest},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"internal", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewQuoteHandler(&fakeQuoteService{err: tc.err}, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/api/quote?amount=1&side=buy", nil)
			rr := httptest.NewRecorder()
			h.GetQuote(rr, req)
			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
		})
	}
}

func TestListRecent(t *testing.T) {
	svc := &fakeQuoteService{recent: []domain.QuoteRecord{sampleRecord()}}
	h := NewQuoteHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/recent?limit=10", nil)
	rr := httptest.NewRecorder()
	h.ListRecent(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Quotes []quoteResponse `json:"quotes"`
		Limit  int             `json:"limit"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Quotes) != 1 || resp.Quotes[0].ID != "q-1" {
		t.Errorf("quotes = %+v", resp.Quotes)
	}
	if resp.Limit != 10 {
		t.Errorf("limit = %d, want 10", resp.Limit)
	}
}

func TestReload(t *testing.T) {
	h := NewQuoteHandler(&fakeQuoteService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rr := httptest.NewRecorder()
	h.Reload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestReloadFailure(t *testing.T) {
	h := NewQuoteHandler(&fakeQuoteService{reloadErr: io.ErrUnexpectedEOF}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rr := httptest.NewRecorder()
	h.Reload(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

type fakeStatusService struct {
	st domain.SnapshotStatus
}

func (f *fakeStatusService) Status() domain.SnapshotStatus { return f.st }

func TestGetStatus(t *testing.T) {
	svc := &fakeStatusService{st: domain.SnapshotStatus{
		VenueCount:   3,
		AskLevels:    12,
		BidLevels:    11,
		QuotesServed: 42,
	}}
	h := NewStatusHandler(svc, "serve")

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr := httptest.NewRecorder()
	h.GetStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Mode     string                `json:"mode"`
		Snapshot domain.SnapshotStatus `json:"snapshot"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Mode != "serve" {
		t.Errorf("mode = %q, want serve", resp.Mode)
	}
	if resp.Snapshot.VenueCount != 3 || resp.Snapshot.QuotesServed != 42 {
		t.Errorf("snapshot = %+v", resp.Snapshot)
	}
}

func TestPlaceTradeNotImplemented(t *testing.T) {
	h := NewTradeHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/trade", nil)
	rr := httptest.NewRecorder()
	h.PlaceTrade(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rr.Code)
	}
}
