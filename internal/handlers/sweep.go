package handlers

import (
	"net/http"

	"classroom-notifier/internal/service"
)

// SweepHandler triggers a sweep on demand.
type SweepHandler struct {
	notifier service.NotifierService
}

// NewSweepHandler creates a new SweepHandler.
func NewSweepHandler(notifier service.NotifierService) *SweepHandler {
	return &SweepHandler{notifier: notifier}
}

// ServeHTTP handles POST /api/sweep. It answers 409 while another sweep runs.
func (h *SweepHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	report, err := h.notifier.Sweep(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Sweep failed")
		return
	}
	writeJSON(ctx, w, http.StatusOK, report)
}
