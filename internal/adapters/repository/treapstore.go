package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/pkg/metrics"
)

// Treap-based, in-memory FeedStore.
//
// Ordering: score DESC, then matchID ASC. "less" means ranks earlier, so an
// in-order traversal yields the feed from best to worst. Subtree sizes give
// O(log n) rank lookups.

const defaultMaxLimit = 100

type record struct {
	score     float64
	live      bool
	updatedAt time.Time
}

type node struct {
	id    string
	score float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score float64, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of (score, id).
func position(n *node, id string, score float64) int {
	pos := 0
	for n != nil {
		switch {
		case score == n.score && id == n.id:
			return pos + nsize(n.left) + 1
		case less(score, id, n.score, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	collectTopN(n.right, limit, out)
}

// TreapStore implements FeedStore.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	byID     map[string]record
	maxLimit int
	now      func() time.Time
}

// NewTreapStore constructs an empty feed store.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:     make(map[string]record),
		maxLimit: defaultMaxLimit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateFeedSize(0)
	return s
}

func normalize(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return score
}

func (s *TreapStore) Upsert(_ context.Context, matchID string, score float64, live bool) error {
	score = normalize(score)

	s.mu.Lock()
	if old, ok := s.byID[matchID]; ok {
		s.root = deleteNode(s.root, matchID, old.score)
	}
	s.byID[matchID] = record{score: score, live: live, updatedAt: s.now()}
	s.root = insert(s.root, matchID, score, rand.Uint64())
	size := len(s.byID)
	s.mu.Unlock()

	metrics.RecordFeedUpdate()
	metrics.UpdateFeedSize(size)
	return nil
}

func (s *TreapStore) Remove(_ context.Context, matchID string) error {
	s.mu.Lock()
	old, ok := s.byID[matchID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.root = deleteNode(s.root, matchID, old.score)
	delete(s.byID, matchID)
	size := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateFeedSize(size)
	return nil
}

func (s *TreapStore) Prune(_ context.Context, before time.Time) int {
	s.mu.Lock()
	var removed int
	for id, rec := range s.byID {
		if rec.updatedAt.Before(before) {
			s.root = deleteNode(s.root, id, rec.score)
			delete(s.byID, id)
			removed++
		}
	}
	size := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateFeedSize(size)
	return removed
}

func (s *TreapStore) Rank(_ context.Context, matchID string) (model.FeedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[matchID]
	if !ok {
		return model.FeedEntry{}, ErrNotFound
	}
	return model.FeedEntry{
		Rank:    position(s.root, matchID, rec.score),
		MatchID: matchID,
		Score:   rec.score,
		Live:    rec.live,
	}, nil
}

// TopN returns up to n entries. n above the configured maximum is capped.
func (s *TreapStore) TopN(_ context.Context, n int) ([]model.FeedEntry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	n = min(n, s.maxLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]model.FeedEntry, len(nodes))
	for i, nd := range nodes {
		out[i] = model.FeedEntry{
			Rank:    i + 1,
			MatchID: nd.id,
			Score:   nd.score,
			Live:    s.byID[nd.id].live,
		}
	}
	return out, nil
}

func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
