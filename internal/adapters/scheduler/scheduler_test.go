package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/truerecord/internal/adapters/scheduler"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScheduler(t *testing.T) {
	Convey("Given an invalid cron spec", t, func() {
		_, err := scheduler.New("every tuesday", func(context.Context) error { return nil })

		Convey("Then New rejects it", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given an empty spec", t, func() {
		s, err := scheduler.New("", func(context.Context) error { return nil })
		So(err, ShouldBeNil)

		Convey("Then Start reports that nothing is scheduled", func() {
			So(errors.Is(s.Start(context.Background()), scheduler.ErrNoSchedule), ShouldBeTrue)
			So(s.Next().IsZero(), ShouldBeTrue)
			So(s.Stop(context.Background()), ShouldBeNil)
		})
	})

	Convey("Given a scheduler running every second", t, func() {
		var calls atomic.Int32
		fired := make(chan struct{}, 4)
		s, err := scheduler.New("@every 1s", func(context.Context) error {
			calls.Add(1)
			fired <- struct{}{}
			return nil
		}, scheduler.WithLocation(time.UTC))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		So(s.Start(ctx), ShouldBeNil)
		defer func() { _ = s.Stop(context.Background()) }()

		Convey("Then the next run is scheduled", func() {
			So(s.Next().After(time.Now().Add(-time.Second)), ShouldBeTrue)
		})

		Convey("Then the trigger fires", func() {
			select {
			case <-fired:
			case <-time.After(3 * time.Second):
			}
			So(calls.Load(), ShouldBeGreaterThanOrEqualTo, 1)
		})
	})

	Convey("Given RunNow with a failing trigger", t, func() {
		var calls atomic.Int32
		s, err := scheduler.New("0 */6 * * *", func(context.Context) error {
			calls.Add(1)
			return errors.New("queue full")
		})
		So(err, ShouldBeNil)

		Convey("Then the trigger still runs once and the error is swallowed", func() {
			s.RunNow(context.Background())
			So(calls.Load(), ShouldEqual, 1)
		})

		Convey("Then a cancelled context skips the trigger", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			s.RunNow(ctx)
			So(calls.Load(), ShouldEqual, 0)
		})
	})
}
