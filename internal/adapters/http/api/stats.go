package api

import (
	"net/http"
	"time"
)

// StatsProvider reports pipeline counters: queue depth, workers, feed size.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, now: time.Now}
}

// HandleStats writes the provider's stats stamped with the time they were read.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.provider.GetStats()
	out := make(map[string]any, len(stats)+1)
	for k, v := range stats {
		out[k] = v
	}
	out["generatedAt"] = h.now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, out)
}
