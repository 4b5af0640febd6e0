package worker

import "github.com/fieldwise/dispatch/pkg/logger"

// Option applies a configuration option to a Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
			w.log = logger.Get().Named(name)
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(w *Worker) {
		if log != nil {
			w.log = log
		}
	}
}

// PoolOption applies a configuration option to a Pool.
type PoolOption func(*Pool)

// WithPoolSize sets the number of workers in the pool.
func WithPoolSize(size int) PoolOption {
	return func(p *Pool) {
		if size > 0 {
			p.size = size
		}
	}
}
