package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/matchpulse/internal/domain/model"
)

// MatchDependencies defines the interface for rank lookups.
type MatchDependencies interface {
	Rank(ctx context.Context, matchID string) (model.FeedEntry, error)
}

// MatchHandler handles single-match requests.
type MatchHandler struct {
	deps   MatchDependencies
	scores Scores
}

// NewMatchHandler creates a new match handler. scores may be nil.
func NewMatchHandler(deps MatchDependencies, scores Scores) *MatchHandler {
	return &MatchHandler{deps: deps, scores: scores}
}

type matchResponse struct {
	model.FeedEntry
	Record *model.ScoreRecord `json:"record,omitempty"`
}

// HandleGetMatch handles GET /matches/{match_id}.
func (h *MatchHandler) HandleGetMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/matches/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	entry, err := h.deps.Rank(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := matchResponse{FeedEntry: entry}
	if h.scores != nil {
		rec, err := h.scores.Score(r.Context(), id)
		switch {
		case err == nil:
			resp.Record = &rec
		case !isNotFound(err):
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
