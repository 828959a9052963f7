package handler

import (
	"net/http"
)

// TradeHandler reserves the order-placement endpoint. Quotes are advisory;
// routing real orders to venues is not implemented.
type TradeHandler struct{}

// NewTradeHandler creates a TradeHandler.
func NewTradeHandler() *TradeHandler {
	return &TradeHandler{}
}

// PlaceTrade rejects order placement.
// POST /api/trade
func (h *TradeHandler) PlaceTrade(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotImplemented, "order placement is not available; quotes are advisory")
}
