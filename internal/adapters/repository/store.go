// Package repository keeps the in-memory ranked feed of scored matches.
package repository

import (
	"context"
	"time"

	"github.com/okian/matchpulse/internal/domain/model"
)

// FeedStore ranks matches by their latest excitement score.
type FeedStore interface {
	// Upsert sets the score of a match, replacing any previous one.
	Upsert(ctx context.Context, matchID string, score float64, live bool) error

	// Remove drops a match. Returns ErrNotFound if it is not ranked.
	Remove(ctx context.Context, matchID string) error

	// Prune drops every match not updated since before and returns how many.
	Prune(ctx context.Context, before time.Time) int

	// Rank returns the feed entry of a match. Returns ErrNotFound if unknown.
	Rank(ctx context.Context, matchID string) (model.FeedEntry, error)

	// TopN returns the n most exciting matches, best first.
	TopN(ctx context.Context, n int) ([]model.FeedEntry, error)

	Count(ctx context.Context) int
}
