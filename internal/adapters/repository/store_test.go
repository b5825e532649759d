package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/truerecord/internal/adapters/repository"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

func newRedisStore(t *testing.T) (*repository.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewRedisStore(client, repository.WithScanCount(2)), mr
}

func newMemoryStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	s := repository.NewMemoryStore(context.Background(), repository.WithSweepInterval(10*time.Millisecond))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func storeContract(t *testing.T, name string, s repository.Store) {
	Convey("Given a "+name+" store", t, func() {
		ctx := context.Background()

		Convey("When a key is missing", func() {
			_, err := s.Get(ctx, "truerecord:missing")

			Convey("Then Get returns ErrNotFound", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a key is set", func() {
			So(s.Set(ctx, "truerecord:a", []byte("1"), 0), ShouldBeNil)

			Convey("Then Get returns its value", func() {
				b, err := s.Get(ctx, "truerecord:a")
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "1")
			})

			Convey("And Delete removes it", func() {
				So(s.Delete(ctx, "truerecord:a", "truerecord:never"), ShouldBeNil)
				_, err := s.Get(ctx, "truerecord:a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When many keys share a prefix", func() {
			So(s.SetMany(ctx, map[string][]byte{
				"truerecord:1:2024:record:3": []byte("c"),
				"truerecord:1:2024:record:1": []byte("a"),
				"truerecord:1:2024:record:2": []byte("b"),
				"truerecord:1:2023:record:1": []byte("old"),
				"truerecord:1:2024:teams":    []byte("[]"),
			}, 0), ShouldBeNil)

			Convey("Then ScanKeys returns only that prefix, sorted", func() {
				keys, err := s.ScanKeys(ctx, "truerecord:1:2024:record:")
				So(err, ShouldBeNil)
				So(keys, ShouldResemble, []string{
					"truerecord:1:2024:record:1",
					"truerecord:1:2024:record:2",
					"truerecord:1:2024:record:3",
				})
			})

			Convey("Then an unmatched prefix yields nothing", func() {
				keys, err := s.ScanKeys(ctx, "truerecord:9:")
				So(err, ShouldBeNil)
				So(keys, ShouldBeEmpty)
			})
		})

		Convey("Then Ping succeeds", func() {
			So(s.Ping(ctx), ShouldBeNil)
		})
	})
}

func TestRedisStore(t *testing.T) {
	s, mr := newRedisStore(t)
	storeContract(t, "redis", s)

	Convey("Given a redis store with a ttl key", t, func() {
		ctx := context.Background()
		So(s.Set(ctx, "truerecord:job:x", []byte("{}"), time.Minute), ShouldBeNil)

		Convey("When the ttl elapses", func() {
			So(mr.TTL("truerecord:job:x"), ShouldEqual, time.Minute)
			mr.FastForward(2 * time.Minute)

			Convey("Then the key is gone", func() {
				_, err := s.Get(ctx, "truerecord:job:x")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a redis server that went away", t, func() {
		mr.Close()

		Convey("Then operations fail with a wrapped error", func() {
			_, err := s.Get(context.Background(), "truerecord:a")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeFalse)
			So(s.Ping(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	s := newMemoryStore(t)
	storeContract(t, "memory", s)

	Convey("Given a memory store with a short ttl key", t, func() {
		ctx := context.Background()
		So(s.Set(ctx, "truerecord:job:y", []byte("{}"), 20*time.Millisecond), ShouldBeNil)

		Convey("When the ttl elapses", func() {
			time.Sleep(50 * time.Millisecond)

			Convey("Then the key is gone", func() {
				_, err := s.Get(ctx, "truerecord:job:y")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				keys, _ := s.ScanKeys(ctx, "truerecord:job:")
				So(keys, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a closed memory store", t, func() {
		closed := repository.NewMemoryStore(context.Background())
		So(closed.Close(), ShouldBeNil)
		So(closed.Close(), ShouldBeNil)

		Convey("Then calls fail with ErrClosed", func() {
			So(errors.Is(closed.Ping(context.Background()), repository.ErrClosed), ShouldBeTrue)
			So(errors.Is(closed.Set(context.Background(), "k", nil, 0), repository.ErrClosed), ShouldBeTrue)
		})
	})
}
