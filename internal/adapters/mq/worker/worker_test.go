package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/matchpulse/internal/adapters/mq/worker"
	"github.com/okian/matchpulse/internal/domain/live"
	model "github.com/okian/matchpulse/internal/domain/model"
	logging "github.com/okian/matchpulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var testNow = time.Date(2025, 4, 12, 16, 10, 0, 0, time.UTC)

type mockQueue struct {
	jobs chan model.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan model.Job, 64)}
}

func (q *mockQueue) Dequeue(ctx context.Context) <-chan model.Job { return q.jobs }

func (q *mockQueue) Close() error {
	close(q.jobs)
	return nil
}

type mockSource struct {
	mu       sync.Mutex
	contexts map[string]model.MatchContext
	inputs   map[string]model.LiveInput
	failures map[string]int // remaining failures per match
	calls    int
}

func newMockSource() *mockSource {
	return &mockSource{
		contexts: make(map[string]model.MatchContext),
		inputs:   make(map[string]model.LiveInput),
		failures: make(map[string]int),
	}
}

func (s *mockSource) MatchContext(ctx context.Context, id string) (model.MatchContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures[id] > 0 {
		s.failures[id]--
		return model.MatchContext{}, errors.New("connection reset")
	}
	mc, ok := s.contexts[id]
	if !ok {
		return model.MatchContext{}, fmt.Errorf("match %s: %w", id, model.ErrMatchNotFound)
	}
	return mc, nil
}

func (s *mockSource) LiveInput(ctx context.Context, id string, now time.Time) (model.LiveInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	in, ok := s.inputs[id]
	if !ok {
		return model.LiveInput{}, model.ErrMatchNotFound
	}
	in.Now = now
	return in, nil
}

type mockSink struct {
	mu       sync.Mutex
	preMatch map[string]model.ScoreRecord
	live     map[string]model.ScoreRecord
	err      error
}

func newMockSink() *mockSink {
	return &mockSink{preMatch: make(map[string]model.ScoreRecord), live: make(map[string]model.ScoreRecord)}
}

func (s *mockSink) SavePreMatch(ctx context.Context, rec model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.preMatch[rec.MatchID] = rec
	return nil
}

func (s *mockSink) SaveLive(ctx context.Context, rec model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.live[rec.MatchID] = rec
	return nil
}

func (s *mockSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.preMatch) + len(s.live)
}

type mockRanker struct {
	mu     sync.Mutex
	scores map[string]float64
	live   map[string]bool
}

func (r *mockRanker) Upsert(ctx context.Context, id string, score float64, live bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scores[id] = score
	r.live[id] = live
	return nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []model.ScoreRecord
	err       error
}

func (p *mockPublisher) Publish(ctx context.Context, rec model.ScoreRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, rec)
	return nil
}

type mockReleaser struct {
	mu       sync.Mutex
	released []string
}

func (r *mockReleaser) Unrecord(ctx context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, key)
}

func upcoming(id string) model.MatchContext {
	return model.MatchContext{
		MatchID:              id,
		HomeTeamID:           "home-" + id,
		AwayTeamID:           "away-" + id,
		CompetitionRankScore: 0.8,
		CurrentRound:         model.Int(10),
		TotalRounds:          model.Int(38),
		HomeForm:             model.Form{Wins: 3, Draws: 1, Matches: 5, GoalsFor: 8},
		AwayForm:             model.Form{Wins: 2, Draws: 2, Matches: 5, GoalsFor: 7},
		HomeRow:              model.TableRow{Position: 3, Points: 20, Matches: 9},
		AwayRow:              model.TableRow{Position: 5, Points: 17, Matches: 9},
		TotalTeams:           20,
		StandingsRows:        20,
	}
}

func inPlay(id string) model.LiveInput {
	stats := model.Statistics{}
	stats.Set(live.PeriodAll, live.GroupOverview, live.StatTotalShots, 8, 6)
	stats.Set(live.PeriodAll, live.GroupShots, live.StatShotsOnTarget, 3, 2)
	stats.Set(live.PeriodAll, live.GroupOverview, live.StatExpectedGoals, 1.1, 0.9)
	stats.Set(live.PeriodAll, live.GroupOverview, live.StatFouls, 6, 5)
	stats.Set(live.PeriodAll, live.GroupOverview, live.StatYellowCards, 1, 2)
	stats.Set(live.PeriodAll, live.GroupOverview, live.StatPossession, 48, 52)
	stats.Set(live.PeriodAll, live.GroupAttack, live.StatBigChances, 2, 1)
	return model.LiveInput{
		Match: model.Match{
			ID:        id,
			Status:    model.StatusLive,
			Period:    model.PeriodFirst,
			KickoffAt: testNow.Add(-40 * time.Minute),
			HomeScore: 1,
			AwayScore: 1,
		},
		Stats: stats,
	}
}

func TestProcessor(t *testing.T) {
	convey.Convey("Given a processor with every collaborator", t, func() {
		_ = logging.Init()

		source := newMockSource()
		sink := newMockSink()
		ranker := &mockRanker{scores: map[string]float64{}, live: map[string]bool{}}
		pub := &mockPublisher{}
		rel := &mockReleaser{}
		p := worker.NewProcessor(source, sink,
			worker.WithRanker(ranker),
			worker.WithPublisher(pub),
			worker.WithReleaser(rel),
			worker.WithClock(func() time.Time { return testNow }),
		)
		ctx := context.Background()

		convey.Convey("When a pre-match job is handled", func() {
			source.contexts["m1"] = upcoming("m1")
			err := p.Handle(ctx, model.Job{ID: "j1", MatchID: "m1", Kind: model.JobPreMatch})

			convey.Convey("Then the score is persisted, ranked and published", func() {
				convey.So(err, convey.ShouldBeNil)
				rec, ok := sink.preMatch["m1"]
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(rec.PreMatch, convey.ShouldNotBeNil)
				convey.So(rec.PreMatchStage, convey.ShouldEqual, "regular")
				convey.So(len(rec.PreMatchBreakdown), convey.ShouldEqual, 8)
				convey.So(rec.PreMatchExplanation, convey.ShouldStartWith, "Expect ")
				convey.So(rec.UpdatedAt, convey.ShouldEqual, testNow)
				convey.So(ranker.scores["m1"], convey.ShouldEqual, *rec.PreMatch)
				convey.So(ranker.live["m1"], convey.ShouldBeFalse)
				convey.So(len(pub.published), convey.ShouldEqual, 1)
				convey.So(rel.released, convey.ShouldResemble, []string{"prematch:m1"})
			})
		})

		convey.Convey("When a live job is handled", func() {
			source.inputs["m2"] = inPlay("m2")
			err := p.Handle(ctx, model.Job{ID: "j2", MatchID: "m2", Kind: model.JobLive})

			convey.Convey("Then the live score is persisted with its game time", func() {
				convey.So(err, convey.ShouldBeNil)
				rec := sink.live["m2"]
				convey.So(rec.Live, convey.ShouldNotBeNil)
				convey.So(rec.GameTime, convey.ShouldEqual, 40.0)
				convey.So(len(rec.LiveBreakdown), convey.ShouldEqual, 7)
				convey.So(rec.LiveFinal, convey.ShouldBeFalse)
				convey.So(ranker.live["m2"], convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a live job runs after the final whistle", func() {
			in := inPlay("m8")
			in.Match.Status = model.StatusFinished
			in.Match.Period = model.PeriodNone
			in.Match.InjuryTime1, in.Match.InjuryTime2 = 2, 4
			source.inputs["m8"] = in
			err := p.Handle(ctx, model.Job{ID: "j8", MatchID: "m8", Kind: model.JobLive})

			convey.Convey("Then a final score with full game time is stored", func() {
				convey.So(err, convey.ShouldBeNil)
				rec := sink.live["m8"]
				convey.So(rec.Live, convey.ShouldNotBeNil)
				convey.So(rec.LiveFinal, convey.ShouldBeTrue)
				convey.So(rec.GameTime, convey.ShouldEqual, 96.0)
				convey.So(rec.LiveExplanation, convey.ShouldStartWith, "Expect ")
			})
		})

		convey.Convey("When a live job has no statistics", func() {
			in := inPlay("m3")
			in.Stats = nil
			source.inputs["m3"] = in
			err := p.Handle(ctx, model.Job{ID: "j3", MatchID: "m3", Kind: model.JobLive})

			convey.Convey("Then nothing is persisted and no error is reported", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sink.count(), convey.ShouldEqual, 0)
				convey.So(len(pub.published), convey.ShouldEqual, 0)
				convey.So(rel.released, convey.ShouldResemble, []string{"live:m3"})
			})
		})

		convey.Convey("When the match is unknown", func() {
			err := p.Handle(ctx, model.Job{ID: "j4", MatchID: "missing", Kind: model.JobPreMatch})

			convey.Convey("Then the error wraps the not-found sentinel and the key is released", func() {
				convey.So(errors.Is(err, model.ErrMatchNotFound), convey.ShouldBeTrue)
				convey.So(rel.released, convey.ShouldResemble, []string{"prematch:missing"})
			})
		})

		convey.Convey("When persistence fails", func() {
			source.contexts["m5"] = upcoming("m5")
			sink.err = errors.New("disk full")
			err := p.Handle(ctx, model.Job{ID: "j5", MatchID: "m5", Kind: model.JobPreMatch})

			convey.Convey("Then the job fails before ranking", func() {
				convey.So(err, convey.ShouldNotBeNil)
				_, ranked := ranker.scores["m5"]
				convey.So(ranked, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When publishing fails", func() {
			source.contexts["m6"] = upcoming("m6")
			pub.err = errors.New("redis down")
			err := p.Handle(ctx, model.Job{ID: "j6", MatchID: "m6", Kind: model.JobPreMatch})

			convey.Convey("Then the job still succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				_, saved := sink.preMatch["m6"]
				convey.So(saved, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the job kind is unknown", func() {
			err := p.Handle(ctx, model.Job{ID: "j7", MatchID: "m7", Kind: "replay"})

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, worker.ErrUnknownJobKind), convey.ShouldBeTrue)
			})
		})
	})
}

func TestRetryingSource(t *testing.T) {
	convey.Convey("Given a flaky source", t, func() {
		_ = logging.Init()
		source := newMockSource()
		source.contexts["m1"] = upcoming("m1")
		ctx := context.Background()

		convey.Convey("When it fails fewer times than the attempt budget", func() {
			source.failures["m1"] = 2
			rs := worker.NewRetryingSource(source, 3, time.Millisecond)
			mc, err := rs.MatchContext(ctx, "m1")

			convey.Convey("Then the lookup eventually succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(mc.MatchID, convey.ShouldEqual, "m1")
				convey.So(source.calls, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When it keeps failing", func() {
			source.failures["m1"] = 10
			rs := worker.NewRetryingSource(source, 2, time.Millisecond)
			_, err := rs.MatchContext(ctx, "m1")

			convey.Convey("Then the last error is returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(source.calls, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the match does not exist", func() {
			rs := worker.NewRetryingSource(source, 5, time.Millisecond)
			_, err := rs.MatchContext(ctx, "missing")

			convey.Convey("Then it is not retried", func() {
				convey.So(errors.Is(err, model.ErrMatchNotFound), convey.ShouldBeTrue)
				convey.So(source.calls, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When resolving live input", func() {
			source.inputs["m9"] = inPlay("m9")
			rs := worker.NewRetryingSource(source, 3, time.Millisecond)
			in, err := rs.LiveInput(ctx, "m9", testNow)

			convey.Convey("Then the input carries the requested time", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(in.Now, convey.ShouldEqual, testNow)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool draining a queue", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		source := newMockSource()
		sink := newMockSink()
		p := worker.NewProcessor(source, sink, worker.WithClock(func() time.Time { return testNow }))
		pool := worker.NewPool(4, q, p)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for i := 0; i < 20; i++ {
			id := fmt.Sprintf("m%d", i)
			source.contexts[id] = upcoming(id)
			q.jobs <- model.Job{ID: "j" + id, MatchID: id, Kind: model.JobPreMatch}
		}
		q.jobs <- model.Job{ID: "jx", MatchID: "missing", Kind: model.JobPreMatch}

		pool.Start(ctx)

		convey.Convey("When the pool is shut down", func() {
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every queued job was handled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				convey.So(sink.count(), convey.ShouldEqual, 20)
				convey.So(pool.Processed(), convey.ShouldEqual, 20)
				convey.So(pool.Failed(), convey.ShouldEqual, 1)
				convey.So(pool.Active(), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given a single worker", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, worker.NewProcessor(newMockSource(), newMockSink()), worker.WithName("solo"))
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)

		convey.Convey("When its context is cancelled", func() {
			cancel()
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()

			convey.Convey("Then shutdown completes", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}
