package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/matchpulse/internal/app"
	"github.com/okian/matchpulse/internal/adapters/repository"
	"github.com/okian/matchpulse/internal/adapters/sqlstore"
	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/pkg/logger"
	"github.com/okian/matchpulse/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

var testNow = time.Date(2025, 4, 12, 12, 0, 0, 0, time.UTC)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubStore serves fixed contexts and records saved scores.
type stubStore struct {
	mu       sync.Mutex
	upcoming []string
	contexts map[string]model.MatchContext
	saved    map[string]model.ScoreRecord
}

func newStubStore() *stubStore {
	return &stubStore{
		upcoming: []string{"a", "b"},
		contexts: map[string]model.MatchContext{
			"a": {MatchID: "a", CompetitionRankScore: 1, HeadToHead: model.HeadToHead{HomeWins: 1, AwayWins: 1}},
			"b": {MatchID: "b", CompetitionRankScore: 0.2},
		},
		saved: map[string]model.ScoreRecord{},
	}
}

func (s *stubStore) MatchContext(_ context.Context, id string) (model.MatchContext, error) {
	mc, ok := s.contexts[id]
	if !ok {
		return model.MatchContext{}, model.ErrMatchNotFound
	}
	return mc, nil
}

func (s *stubStore) LiveInput(_ context.Context, id string, now time.Time) (model.LiveInput, error) {
	return model.LiveInput{Match: model.Match{ID: id}, Now: now}, nil
}

func (s *stubStore) SavePreMatch(_ context.Context, rec model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[rec.MatchID] = rec
	return nil
}

func (s *stubStore) SaveLive(_ context.Context, rec model.ScoreRecord) error {
	return s.SavePreMatch(context.Background(), rec)
}

func (s *stubStore) ListUpcoming(context.Context, time.Time, time.Time) ([]string, error) {
	return s.upcoming, nil
}

func (s *stubStore) ListLive(context.Context) ([]string, error) { return nil, nil }

func (s *stubStore) Score(_ context.Context, id string) (model.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.saved[id]
	if !ok {
		return model.ScoreRecord{}, sqlstore.ErrScoreNotFound
	}
	return rec, nil
}

func waitForFeed(ctx context.Context, svc *service.Service, n int) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := svc.TopN(ctx, 10)
		if err == nil && len(entries) >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func feedUpdates() float64 {
	families, _ := metrics.GetRegistry().Gather()
	for _, f := range families {
		if f.GetName() == "matchpulse_engine_feed_updates_total" && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service over a stub store", t, func() {
		ctx := context.Background()
		store := newStubStore()
		svc := service.New(store,
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithClock(func() time.Time { return testNow }),
		)

		Convey("When it is not started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeFalse)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When it is started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then the first sweep scores every upcoming match", func() {
				So(waitForFeed(ctx, svc, 2), ShouldBeTrue)

				entries, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(entries[0].MatchID, ShouldEqual, "a")
				So(entries[0].Live, ShouldBeFalse)

				rec, err := svc.Score(ctx, "a")
				So(err, ShouldBeNil)
				So(rec.PreMatch, ShouldNotBeNil)
				So(rec.PreMatchExplanation, ShouldStartWith, "Expect")
			})

			Convey("Then stats report the running pipeline", func() {
				So(waitForFeed(ctx, svc, 2), ShouldBeTrue)
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["feedSize"], ShouldEqual, 2)
			})

			Convey("Then starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("Then stale entries are pruned", func() {
				So(waitForFeed(ctx, svc, 2), ShouldBeTrue)
				So(svc.Prune(ctx, testNow.Add(time.Second)), ShouldEqual, 2)
				_, err := svc.Rank(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an invalid schedule", t, func() {
		svc := service.New(newStubStore(), service.WithSchedules("", "bogus"))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldBeFalse)
		})
	})
}

func TestService_FeedMetrics(t *testing.T) {
	Convey("Given a started service with nothing to sweep", t, func() {
		ctx := context.Background()
		store := newStubStore()
		store.upcoming = nil
		svc := service.New(store, service.WithClock(func() time.Time { return testNow }))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When one match is ranked", func() {
			before := feedUpdates()
			So(svc.Upsert(ctx, "x", 0.5, false), ShouldBeNil)

			Convey("Then the feed update is counted once", func() {
				So(feedUpdates()-before, ShouldEqual, 1.0)
				So(svc.GetStats()["feedSize"], ShouldEqual, 1)
			})
		})
	})
}
