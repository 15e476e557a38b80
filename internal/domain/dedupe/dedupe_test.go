package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/matchpulse/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
			So(d.Pending("prematch:m1"), ShouldBeFalse)
		})

		Convey("When a job key is recorded", func() {
			seen := d.SeenAndRecord(ctx, "prematch:m1")

			Convey("Then it is new and pending", func() {
				So(seen, ShouldBeFalse)
				So(d.Pending("prematch:m1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same key is recorded again", func() {
				So(d.SeenAndRecord(ctx, "prematch:m1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a different kind for the same match is recorded", func() {
				So(d.SeenAndRecord(ctx, "live:m1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
			})

			Convey("And the key is released", func() {
				d.Unrecord(ctx, "prematch:m1")

				Convey("Then it can be queued again", func() {
					So(d.Pending("prematch:m1"), ShouldBeFalse)
					So(d.SeenAndRecord(ctx, "prematch:m1"), ShouldBeFalse)
				})
			})
		})

		Convey("When releasing a key that was never recorded", func() {
			d.Unrecord(ctx, "live:missing")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("live:m%d", i))
		}

		Convey("When it is full and a new key arrives", func() {
			So(d.SeenAndRecord(ctx, "live:m4"), ShouldBeFalse)

			Convey("Then the oldest key is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.Pending("live:m1"), ShouldBeFalse)
				So(d.Pending("live:m2"), ShouldBeTrue)
				So(d.Pending("live:m4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("prematch:m%d", i))
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 1000)
			So(d.Pending("prematch:m0"), ShouldBeTrue)
		})
	})
}

func TestDeduperConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for g := 0; g < 10; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("live:m%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is claimed exactly once", func() {
			So(fresh, ShouldEqual, 100)
			So(d.Size(), ShouldEqual, 100)
		})
	})
}
