package handler

import (
	"net/http"

	"github.com/alanyoungcy/metaquote/internal/domain"
)

// StatusService exposes the snapshot summary the status handler reports.
type StatusService interface {
	Status() domain.SnapshotStatus
}

// StatusHandler serves the snapshot and counter summary for operators.
type StatusHandler struct {
	status StatusService
	mode   string
}

// NewStatusHandler creates a StatusHandler for the given service and run mode.
func NewStatusHandler(status StatusService, mode string) *StatusHandler {
	return &StatusHandler{status: status, mode: mode}
}

// GetStatus responds with the run mode, the loaded snapshot's shape, and the
// lifetime quote counters.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":     h.mode,
		"snapshot": st,
	})
}
