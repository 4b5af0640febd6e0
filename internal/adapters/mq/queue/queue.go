// Package queue provides the bounded in-memory buffer between the
// recommendation path and the audit writers. Enqueue never blocks the
// request path: when the buffer is full the record is dropped and counted.
package queue

import (
	"context"
	"sync"

	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/pkg/metrics"
)

const defaultCapacity = 10000

// Record is the payload flowing through the queue.
type Record = model.AuditRecord

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a record to the queue.
	// Returns false if the queue is full or closed and the record was dropped.
	Enqueue(ctx context.Context, rec Record) bool

	// Dequeue returns a channel receiving records as they become available.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Record

	// Len returns the current number of buffered records.
	Len() int

	// Close stops the queue. Buffered records remain readable until drained.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue on a buffered channel.
type InMemoryQueue struct {
	records  chan Record
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.records = make(chan Record, q.capacity)

	metrics.UpdateAuditQueueCapacity(q.capacity)
	metrics.UpdateAuditQueueSize(0)
	return q
}

// Enqueue adds a record without blocking. A full or closed queue drops the
// record; audit writes are best-effort once the response is final.
func (q *InMemoryQueue) Enqueue(ctx context.Context, rec Record) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		metrics.RecordAuditDropped()
		return false
	}

	select {
	case q.records <- rec:
		metrics.RecordAuditEnqueued()
		metrics.UpdateAuditQueueSize(len(q.records))
		return true
	default:
		metrics.RecordAuditDropped()
		return false
	}
}

// Dequeue returns a channel that drains the queue. Cancelling ctx stops the
// forwarding goroutine.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Record {
	out := make(chan Record)
	go func() {
		defer close(out)
		for rec := range q.records {
			select {
			case out <- rec:
				metrics.UpdateAuditQueueSize(len(q.records))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of buffered records.
func (q *InMemoryQueue) Len() int {
	return len(q.records)
}

// Close stops accepting new records and lets consumers drain the buffer.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.records)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
