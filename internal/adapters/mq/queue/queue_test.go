package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded queue", t, func() {
		q := NewInMemoryQueue(WithCapacity(2))

		Convey("Enqueued records come back through Dequeue in order", func() {
			So(q.Enqueue(ctx, Record{ID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, Record{ID: "b"}), ShouldBeTrue)
			So(q.Len(), ShouldEqual, 2)

			out := q.Dequeue(ctx)
			So((<-out).ID, ShouldEqual, "a")
			So((<-out).ID, ShouldEqual, "b")
		})

		Convey("A full queue drops instead of blocking", func() {
			So(q.Enqueue(ctx, Record{ID: "a"}), ShouldBeTrue)
			So(q.Enqueue(ctx, Record{ID: "b"}), ShouldBeTrue)

			done := make(chan bool, 1)
			go func() { done <- q.Enqueue(ctx, Record{ID: "c"}) }()
			select {
			case ok := <-done:
				So(ok, ShouldBeFalse)
			case <-time.After(time.Second):
				t.Fatal("enqueue blocked on full queue")
			}
		})

		Convey("A closed queue rejects new records but drains buffered ones", func() {
			So(q.Enqueue(ctx, Record{ID: "a"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, Record{ID: "b"}), ShouldBeFalse)

			out := q.Dequeue(ctx)
			So((<-out).ID, ShouldEqual, "a")
			_, open := <-out
			So(open, ShouldBeFalse)
		})

		Convey("Close is idempotent", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
		})

		Convey("A cancelled context rejects enqueues", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			So(q.Enqueue(cancelled, Record{ID: "a"}), ShouldBeFalse)
		})
	})

	Convey("Given a larger queue under load", t, func() {
		q := NewInMemoryQueue(WithCapacity(100))
		for i := 0; i < 100; i++ {
			So(q.Enqueue(ctx, Record{ID: fmt.Sprintf("rec-%03d", i)}), ShouldBeTrue)
		}
		So(q.Enqueue(ctx, Record{ID: "overflow"}), ShouldBeFalse)
		So(q.Len(), ShouldEqual, 100)
	})
}
