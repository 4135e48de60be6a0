package dispatch

import "github.com/sweetshooter/study-progress-tracker/pkg/logger"

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithCapacity bounds the pending write queue.
func WithCapacity(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}
