package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/matchpulse/internal/adapters/http/api"
	"github.com/okian/matchpulse/internal/adapters/repository"
	"github.com/okian/matchpulse/internal/adapters/sqlstore"
	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/pkg/metrics"
)

type mockScores struct {
	records map[string]model.ScoreRecord
	err     error
}

func (m *mockScores) Score(_ context.Context, id string) (model.ScoreRecord, error) {
	if m.err != nil {
		return model.ScoreRecord{}, m.err
	}
	rec, ok := m.records[id]
	if !ok {
		return model.ScoreRecord{}, sqlstore.ErrScoreNotFound
	}
	return rec, nil
}

type failingFeed struct{}

func (failingFeed) TopN(context.Context, int) ([]model.FeedEntry, error) {
	return nil, errors.New("boom")
}

func (failingFeed) Rank(context.Context, string) (model.FeedEntry, error) {
	return model.FeedEntry{}, errors.New("boom")
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newMux(feed api.Feed, scores api.Scores) *http.ServeMux {
	stats := &mockStatsProvider{stats: map[string]any{"workers": 4}}
	mux := http.NewServeMux()
	api.NewServer(feed, scores, stats, 10).Register(mux)
	return mux
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func seededFeed() repository.FeedStore {
	feed := repository.NewTreapStore()
	ctx := context.Background()
	_ = feed.Upsert(ctx, "m1", 0.4, false)
	_ = feed.Upsert(ctx, "m2", 0.9, true)
	_ = feed.Upsert(ctx, "m3", 0.6, false)
	return feed
}

func TestServer(t *testing.T) {
	Convey("Given a server over a seeded feed", t, func() {
		scores := &mockScores{records: map[string]model.ScoreRecord{
			"m2": {MatchID: "m2", Live: model.Float64(0.9), LiveExplanation: "Expect exceptional excitement"},
		}}
		mux := newMux(seededFeed(), scores)

		Convey("When scraping /healthz", func() {
			w := get(mux, "/healthz")

			Convey("Then metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "matchpulse_")
			})
		})

		Convey("When reading /stats", func() {
			w := get(mux, "/stats")
			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(body["workers"], ShouldEqual, 4.0)
			So(body["generatedAt"], ShouldNotBeEmpty)
		})

		Convey("When reading the feed", func() {
			w := get(mux, "/feed?limit=2")
			var entries []model.FeedEntry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)

			Convey("Then the best matches come first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(entries), ShouldEqual, 2)
				So(entries[0].MatchID, ShouldEqual, "m2")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Live, ShouldBeTrue)
				So(entries[1].MatchID, ShouldEqual, "m3")
			})
		})

		Convey("When the limit is omitted", func() {
			w := get(mux, "/feed")
			var entries []model.FeedEntry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(len(entries), ShouldEqual, 3)
		})

		Convey("When the limit is invalid", func() {
			So(get(mux, "/feed?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			So(get(mux, "/feed?limit=abc").Code, ShouldEqual, http.StatusBadRequest)

			w := get(mux, "/feed?limit=11")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
		})

		Convey("When posting to the feed", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/feed", strings.NewReader("{}")))
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When reading a ranked match with a record", func() {
			w := get(mux, "/matches/m2")
			var body struct {
				Rank    int               `json:"rank"`
				MatchID string            `json:"match_id"`
				Record  model.ScoreRecord `json:"record"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then the rank and record are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.Rank, ShouldEqual, 1)
				So(body.MatchID, ShouldEqual, "m2")
				So(body.Record.LiveExplanation, ShouldStartWith, "Expect")
			})
		})

		Convey("When reading a ranked match without a record", func() {
			w := get(mux, "/matches/m1")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldNotContainSubstring, "record")
		})

		Convey("When the match is unknown", func() {
			w := get(mux, "/matches/nope")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "not_found")
		})

		Convey("When the path is malformed", func() {
			So(get(mux, "/matches/").Code, ShouldEqual, http.StatusBadRequest)
			So(get(mux, "/matches/a/b").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the score store fails", func() {
			scores.err = errors.New("db down")
			So(get(mux, "/matches/m2").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})

	Convey("Given a failing feed", t, func() {
		mux := newMux(failingFeed{}, nil)

		Convey("Then reads return 500", func() {
			So(get(mux, "/feed").Code, ShouldEqual, http.StatusInternalServerError)
			So(get(mux, "/matches/m1").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func httpErrorCount(endpoint, class string) float64 {
	families, _ := metrics.GetRegistry().Gather()
	for _, f := range families {
		if f.GetName() != "matchpulse_engine_http_errors_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["endpoint"] == endpoint && labels["error_type"] == class {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestErrorMetrics(t *testing.T) {
	Convey("Given requests that fail", t, func() {
		mux := newMux(seededFeed(), nil)

		Convey("Then each failure is counted by class", func() {
			before := httpErrorCount("matches", "not_found")
			So(get(mux, "/matches/unknown").Code, ShouldEqual, http.StatusNotFound)
			So(httpErrorCount("matches", "not_found"), ShouldEqual, before+1)

			before = httpErrorCount("feed", "bad_request")
			So(get(mux, "/feed?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
			So(httpErrorCount("feed", "bad_request"), ShouldEqual, before+1)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		base := errors.New("cause")

		Convey("Then kinds and causes are both matchable", func() {
			err := api.WrapKind("op", api.ErrNotFound, base)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(errors.Is(err, base), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: not found: cause")
		})

		Convey("Then nil stays nil", func() {
			So(api.Wrap("op", nil), ShouldBeNil)
		})

		Convey("Then bare kinds render", func() {
			So(api.NewKind("op", api.ErrBadRequest).Error(), ShouldEqual, "op: bad request")
		})
	})
}
