package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/truerecord/internal/adapters/mq/queue"
	worker "github.com/okian/truerecord/internal/adapters/mq/worker"
	model "github.com/okian/truerecord/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type recordingHandler struct {
	mu    sync.Mutex
	seen  []string
	fail  map[string]error
	delay time.Duration
	done  chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{fail: map[string]error{}, done: make(chan string, 16)}
}

func (h *recordingHandler) Handle(ctx context.Context, j queue.Job) error {
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.mu.Lock()
	h.seen = append(h.seen, j.ID)
	err := h.fail[j.ID]
	h.mu.Unlock()
	h.done <- j.ID
	return err
}

func (h *recordingHandler) ids() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func waitFor(ch <-chan string, n int) []string {
	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case id := <-ch:
			got = append(got, id)
		case <-timeout:
			return got
		}
	}
	return got
}

func newJob(id string) queue.Job {
	return model.RefreshJob{ID: id, LeagueID: "1", Season: 2024, Status: model.JobQueued}
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker on an in-memory queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		h := newRecordingHandler()
		h.fail["bad"] = errors.New("espn down")
		w := worker.NewInMemoryWorker(q, h, worker.WithName("test-worker"))
		go w.Run(ctx)

		convey.Convey("When jobs are enqueued", func() {
			convey.So(q.Enqueue(ctx, newJob("a")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, newJob("bad")), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, newJob("b")), convey.ShouldBeNil)

			convey.Convey("Then every job is handled in order, failures included", func() {
				convey.So(waitFor(h.done, 3), convey.ShouldResemble, []string{"a", "bad", "b"})
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker that is never started", t, func() {
		w := worker.NewInMemoryWorker(queue.NewInMemoryQueue(), newRecordingHandler())
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		convey.Convey("Then shutdown times out", func() {
			convey.So(w.Shutdown(ctx), convey.ShouldNotBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		h := newRecordingHandler()
		h.delay = 5 * time.Millisecond
		pool := worker.NewPool(3, q, h)
		pool.Start(ctx)
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When many jobs are enqueued", func() {
			for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
				convey.So(q.Enqueue(ctx, newJob(id)), convey.ShouldBeNil)
			}

			convey.Convey("Then all of them are handled exactly once", func() {
				convey.So(waitFor(h.done, 6), convey.ShouldHaveLength, 6)
				convey.So(h.ids(), convey.ShouldHaveLength, 6)
			})
		})

		convey.Convey("When the pool shuts down", func() {
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the queue rejects new jobs", func() {
				convey.So(errors.Is(q.Enqueue(ctx, newJob("late")), queue.ErrClosed), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a handler func", t, func() {
		called := false
		h := worker.HandlerFunc(func(context.Context, queue.Job) error { called = true; return nil })
		convey.So(h.Handle(context.Background(), newJob("x")), convey.ShouldBeNil)
		convey.So(called, convey.ShouldBeTrue)
	})
}
