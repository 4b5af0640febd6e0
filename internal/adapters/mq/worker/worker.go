// Package worker drains the audit queue into durable storage. Writers run in
// a small pool so a slow disk never backs up the recommendation path.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/pkg/logger"
	"github.com/fieldwise/dispatch/pkg/metrics"
)

const defaultPoolSize = 2

// Record is what workers read off the queue.
type Record = model.AuditRecord

// Writer persists one audit record.
type Writer interface {
	WriteAudit(ctx context.Context, rec model.AuditRecord) error
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Record
	IsClosed() bool
}

// Worker consumes audit records and writes them through the Writer.
type Worker struct {
	queue  Queue
	writer Writer
	name   string

	shutdown chan struct{}
	done     chan struct{}
	log      logger.Logger
}

// NewWorker creates one audit writer.
func NewWorker(queue Queue, writer Writer, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		writer:   writer,
		name:     "audit-writer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		log:      logger.Get().Named("audit-writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes records until the queue closes, ctx is cancelled, or Shutdown
// is called. A Shutdown after the queue has closed still drains the buffered
// records. Write failures are logged and counted, never retried: the audit
// trail is best-effort once the response is final.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			// A closed queue receives nothing new, so only the buffered
			// records remain; write those out before stopping.
			if w.queue.IsClosed() {
				w.drain(ctx, records)
			}
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			w.write(ctx, rec)
		}
	}
}

func (w *Worker) drain(ctx context.Context, records <-chan Record) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			w.write(ctx, rec)
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight record.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.log.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("worker %s shutdown: %w", w.name, ctx.Err())
	}
}

func (w *Worker) write(ctx context.Context, rec Record) {
	start := time.Now()
	err := w.writer.WriteAudit(ctx, rec)
	metrics.RecordAuditWriteLatency(float64(time.Since(start).Milliseconds()))

	if err != nil {
		metrics.RecordAuditWriteError()
		w.log.Error(ctx, "audit write failed",
			logger.String("audit_id", rec.ID),
			logger.String("job_id", rec.JobID),
			logger.Error(err))
		return
	}
	metrics.RecordAuditWritten()
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	size    int
	wg      sync.WaitGroup
	log     logger.Logger
}

// NewPool builds a pool of size workers sharing the queue and writer.
func NewPool(queue Queue, writer Writer, opts ...PoolOption) *Pool {
	p := &Pool{
		size: defaultPoolSize,
		log:  logger.Get().Named("audit-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := 0; i < p.size; i++ {
		p.workers = append(p.workers, NewWorker(queue, writer,
			WithName(fmt.Sprintf("audit-writer-%d", i))))
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateAuditWorkerCount(p.size)
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
	p.log.Info(ctx, "audit writer pool started", logger.Int("workers", p.size))
}

// Shutdown stops every worker and waits for them to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.wg.Wait()
	metrics.UpdateAuditWorkerCount(0)
	return firstErr
}
