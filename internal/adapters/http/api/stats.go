package api

import (
	"context"
	"maps"
	"net/http"
	"time"
)

// StatsProvider reports service counters for GET /stats.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

// StatsHandler serves a snapshot of the provider's counters stamped with
// the time it was taken.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

// NewStatsHandler creates a stats handler backed by p.
func NewStatsHandler(p StatsProvider) *StatsHandler {
	return &StatsHandler{provider: p, now: time.Now}
}

// HandleStats handles GET /stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	snapshot := make(map[string]any)
	maps.Copy(snapshot, h.provider.GetStats(r.Context()))
	snapshot["generated_at"] = h.now().UTC().Format(time.RFC3339)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, snapshot)
}
