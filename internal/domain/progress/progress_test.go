package progress_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/okian/gamestore/internal/domain/progress"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTracker(t *testing.T) {
	Convey("Given a new tracker", t, func() {
		tr := progress.NewTracker()

		Convey("Then nothing is scheduled and loading is complete", func() {
			s := tr.Snapshot()
			So(s.Generation, ShouldEqual, 0)
			So(s.Total, ShouldEqual, 0)
			So(s.Percent, ShouldEqual, 0)
			So(s.Complete, ShouldBeTrue)
		})

		Convey("When three loads are scheduled", func() {
			gen := tr.Reset(3)

			Convey("Then it is incomplete at 0%", func() {
				s := tr.Snapshot()
				So(gen, ShouldEqual, 1)
				So(s.Complete, ShouldBeFalse)
				So(s.Percent, ShouldEqual, 0)
			})

			Convey("And a failure still counts as loaded", func() {
				So(tr.Done(gen, nil), ShouldBeTrue)
				So(tr.Done(gen, errors.New("broken file")), ShouldBeTrue)
				s := tr.Snapshot()
				So(s.Loaded, ShouldEqual, 2)
				So(s.Failed, ShouldEqual, 1)
				So(s.Percent, ShouldEqual, 67)

				So(tr.Done(gen, nil), ShouldBeTrue)
				s = tr.Snapshot()
				So(s.Percent, ShouldEqual, 100)
				So(s.Complete, ShouldBeTrue)
			})

			Convey("And extra completions are not counted", func() {
				for i := 0; i < 5; i++ {
					tr.Done(gen, nil)
				}
				So(tr.Snapshot().Loaded, ShouldEqual, 3)
			})

			Convey("And completions from an older generation are ignored", func() {
				next := tr.Reset(2)
				So(tr.Done(gen, nil), ShouldBeFalse)
				So(tr.Snapshot().Loaded, ShouldEqual, 0)
				So(tr.Done(next, nil), ShouldBeTrue)
				So(tr.Snapshot().Percent, ShouldEqual, 50)
			})
		})

		Convey("When completions arrive concurrently", func() {
			gen := tr.Reset(100)
			var wg sync.WaitGroup
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					tr.Done(gen, nil)
				}()
			}
			wg.Wait()

			Convey("Then every one is counted", func() {
				s := tr.Snapshot()
				So(s.Loaded, ShouldEqual, 100)
				So(s.Complete, ShouldBeTrue)
			})
		})

		Convey("When a negative total is given", func() {
			tr.Reset(-4)

			Convey("Then it is treated as zero", func() {
				So(tr.Snapshot().Total, ShouldEqual, 0)
			})
		})
	})
}
