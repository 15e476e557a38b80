package seed

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchpulse/internal/adapters/sqlstore"
	"github.com/okian/matchpulse/internal/domain/live"
	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/pkg/logger"
)

var testNow = time.Date(2025, 4, 12, 16, 30, 0, 0, time.UTC)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestRoundRobin(t *testing.T) {
	Convey("Given six teams", t, func() {
		rounds := roundRobin(6)

		Convey("Then there are ten rounds of three matches", func() {
			So(len(rounds), ShouldEqual, 10)
			for _, r := range rounds {
				So(len(r), ShouldEqual, 3)
			}
		})

		Convey("Then every ordered pairing happens exactly once", func() {
			seen := map[[2]int]int{}
			for _, r := range rounds {
				playing := map[int]bool{}
				for _, p := range r {
					seen[p]++
					So(playing[p[0]] || playing[p[1]], ShouldBeFalse)
					playing[p[0]], playing[p[1]] = true, true
				}
			}
			So(len(seen), ShouldEqual, 30)
			for _, n := range seen {
				So(n, ShouldEqual, 1)
			}
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given the default config", t, func() {
		cfg := DefaultConfig(testNow)
		l := Generate(cfg)

		Convey("Then the league has the configured shape", func() {
			So(len(l.Teams), ShouldEqual, 20)
			So(len(l.Matches), ShouldEqual, 380)
			So(len(l.Standings), ShouldEqual, 20)
			So(len(l.Statistics), ShouldEqual, 3)
			So(l.TitleHolderID, ShouldNotBeEmpty)
		})

		Convey("Then statuses follow the round", func() {
			var finished, liveCount int
			for _, m := range l.Matches {
				switch m.Status {
				case model.StatusFinished:
					finished++
					So(m.KickoffAt.Before(testNow), ShouldBeTrue)
				case model.StatusLive:
					liveCount++
					So(live.GameTime(m, testNow), ShouldBeBetweenOrEqual, 50.0, 92.0)
				case model.StatusScheduled:
					So(m.KickoffAt.After(testNow), ShouldBeTrue)
				}
			}
			So(finished, ShouldEqual, 28*10)
			So(liveCount, ShouldEqual, 3)
		})

		Convey("Then standings are ordered by points", func() {
			for i := 1; i < len(l.Standings); i++ {
				So(l.Standings[i-1].Row.Points, ShouldBeGreaterThanOrEqualTo, l.Standings[i].Row.Points)
				So(l.Standings[i].Row.Position, ShouldEqual, i+1)
				So(l.Standings[i].Row.Matches, ShouldEqual, 28)
			}
		})

		Convey("Then generation is deterministic", func() {
			So(Generate(cfg), ShouldResemble, l)
		})
	})

	Convey("Given an odd team count", t, func() {
		cfg := DefaultConfig(testNow)
		cfg.Teams, cfg.PlayedRounds, cfg.Live = 5, 2, 1
		l := Generate(cfg)

		Convey("Then it is rounded up", func() {
			So(len(l.Teams), ShouldEqual, 6)
			So(len(l.Matches), ShouldEqual, 30)
		})
	})
}

func TestWrite(t *testing.T) {
	Convey("Given a sqlite repository", t, func() {
		ctx := context.Background()
		repo, err := sqlstore.Open(ctx, "sqlite", ":memory:")
		So(err, ShouldBeNil)
		defer func() { _ = repo.Close() }()
		So(repo.Migrate(ctx), ShouldBeNil)

		cfg := DefaultConfig(testNow)
		cfg.Teams, cfg.PlayedRounds, cfg.Live = 6, 4, 1
		l := Generate(cfg)

		Convey("When the league is written", func() {
			st, err := Write(ctx, repo, l)
			So(err, ShouldBeNil)

			Convey("Then the counts add up", func() {
				So(st.Teams, ShouldEqual, 6)
				So(st.Finished, ShouldEqual, 12)
				So(st.Live, ShouldEqual, 1)
				So(st.Scheduled, ShouldEqual, 30-12-1)
				So(st.Statistics, ShouldBeGreaterThanOrEqualTo, 7)
			})

			Convey("Then the live match is scoreable", func() {
				ids, err := repo.ListLive(ctx)
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 1)

				in, err := repo.LiveInput(ctx, ids[0], testNow)
				So(err, ShouldBeNil)
				_, ok := live.Compute(in)
				So(ok, ShouldBeTrue)
			})

			Convey("Then upcoming matches resolve a full context", func() {
				ids, err := repo.ListUpcoming(ctx, testNow, testNow.Add(24*time.Hour))
				So(err, ShouldBeNil)
				So(len(ids), ShouldEqual, 2)

				mc, err := repo.MatchContext(ctx, ids[0])
				So(err, ShouldBeNil)
				So(mc.StandingsRows, ShouldEqual, 6)
				So(mc.HomeForm.Matches, ShouldEqual, 4)
			})
		})
	})
}
