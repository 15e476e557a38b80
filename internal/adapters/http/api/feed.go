package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/matchpulse/internal/domain/model"
)

const defaultFeedLimit = 20

// FeedDependencies defines the interface for feed reads.
type FeedDependencies interface {
	TopN(ctx context.Context, n int) ([]model.FeedEntry, error)
}

// FeedHandler handles ranked feed requests.
type FeedHandler struct {
	deps     FeedDependencies
	maxLimit int
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(deps FeedDependencies, maxLimit int) *FeedHandler {
	if maxLimit <= 0 {
		maxLimit = defaultFeedLimit
	}
	return &FeedHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetFeed handles GET /feed?limit=N. limit defaults to 20, capped by the configured maximum.
func (h *FeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_feed"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := min(defaultFeedLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}

	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if entries == nil {
		entries = []model.FeedEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
