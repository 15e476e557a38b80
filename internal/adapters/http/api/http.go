// Package api serves the operational HTTP endpoints: metrics, stats and the
// read-only ranked feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/matchpulse/internal/adapters/repository"
	"github.com/okian/matchpulse/internal/adapters/sqlstore"
	"github.com/okian/matchpulse/internal/domain/model"
)

// Feed exposes the ranked feed.
type Feed interface {
	TopN(ctx context.Context, n int) ([]model.FeedEntry, error)
	Rank(ctx context.Context, matchID string) (model.FeedEntry, error)
}

// Scores exposes persisted score records.
type Scores interface {
	Score(ctx context.Context, matchID string) (model.ScoreRecord, error)
}

// Server wires HTTP routes.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	feedHandler   *FeedHandler
	matchHandler  *MatchHandler
}

// NewServer creates a new API server with all handlers. scores may be nil.
func NewServer(feed Feed, scores Scores, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		feedHandler:   NewFeedHandler(feed, maxLimit),
		matchHandler:  NewMatchHandler(feed, scores),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/feed", MetricsMiddleware(s.feedHandler.HandleGetFeed, "feed"))
	mux.HandleFunc("/matches/", MetricsMiddleware(s.matchHandler.HandleGetMatch, "matches"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound reports whether err means the match is unknown to a store.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, sqlstore.ErrScoreNotFound) ||
		errors.Is(err, model.ErrMatchNotFound) ||
		errors.Is(err, ErrNotFound)
}
