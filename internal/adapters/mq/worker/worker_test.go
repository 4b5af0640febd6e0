package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/fieldwise/dispatch/internal/adapters/mq/queue"
	"github.com/fieldwise/dispatch/internal/domain/model"
)

type captureWriter struct {
	mu      sync.Mutex
	written []string
	failIDs map[string]struct{}
}

func (c *captureWriter) WriteAudit(_ context.Context, rec model.AuditRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, fail := c.failIDs[rec.ID]; fail {
		return errors.New("disk full")
	}
	c.written = append(c.written, rec.ID)
	return nil
}

func (c *captureWriter) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.written))
	copy(out, c.written)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWorker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a worker on a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		writer := &captureWriter{}
		w := NewWorker(q, writer)

		runCtx, cancel := context.WithCancel(ctx)
		go w.Run(runCtx)
		Reset(func() {
			cancel()
			_ = q.Close()
		})

		Convey("Enqueued records are written", func() {
			So(q.Enqueue(ctx, Record{ID: "a", JobID: "job-1"}), ShouldBeTrue)
			So(q.Enqueue(ctx, Record{ID: "b", JobID: "job-1"}), ShouldBeTrue)

			waitFor(t, func() bool { return len(writer.ids()) == 2 })
			So(writer.ids(), ShouldResemble, []string{"a", "b"})
		})

		Convey("A write failure does not stop the worker", func() {
			writer.failIDs = map[string]struct{}{"bad": {}}
			So(q.Enqueue(ctx, Record{ID: "bad"}), ShouldBeTrue)
			So(q.Enqueue(ctx, Record{ID: "good"}), ShouldBeTrue)

			waitFor(t, func() bool { return len(writer.ids()) == 1 })
			So(writer.ids(), ShouldResemble, []string{"good"})
		})

		Convey("Shutdown returns once the worker stops", func() {
			shutdownCtx, stop := context.WithTimeout(ctx, time.Second)
			defer stop()
			So(w.Shutdown(shutdownCtx), ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(128))
		writer := &captureWriter{}
		pool := NewPool(q, writer, WithPoolSize(4))

		runCtx, cancel := context.WithCancel(ctx)
		pool.Start(runCtx)
		Reset(func() {
			cancel()
			_ = q.Close()
		})

		Convey("All records are drained across workers", func() {
			for i := 0; i < 50; i++ {
				So(q.Enqueue(ctx, Record{ID: fmt.Sprintf("rec-%02d", i)}), ShouldBeTrue)
			}
			waitFor(t, func() bool { return len(writer.ids()) == 50 })
		})

		Convey("Shutdown stops every worker", func() {
			shutdownCtx, stop := context.WithTimeout(ctx, time.Second)
			defer stop()
			So(pool.Shutdown(shutdownCtx), ShouldBeNil)
		})

		Convey("Closing the queue before shutdown drains buffered records", func() {
			for i := 0; i < 30; i++ {
				So(q.Enqueue(ctx, Record{ID: fmt.Sprintf("rec-%02d", i)}), ShouldBeTrue)
			}
			So(q.Close(), ShouldBeNil)

			shutdownCtx, stop := context.WithTimeout(ctx, time.Second)
			defer stop()
			So(pool.Shutdown(shutdownCtx), ShouldBeNil)
			So(writer.ids(), ShouldHaveLength, 30)
		})
	})
}
