// Package dispatch serializes remote progress writes through a bounded
// in-memory queue with a single consumer, so field writes reach the remote
// store in submission order regardless of how many HTTP requests race.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/sweetshooter/study-progress-tracker/pkg/logger"
	"github.com/sweetshooter/study-progress-tracker/pkg/metrics"
)

// Default dispatcher configuration constants.
const (
	defaultCapacity = 1024
)

// FieldWrite is one pending partial update of a user document.
type FieldWrite struct {
	Name        string
	SubjectID   string
	Value       int
	LastUpdated string
}

// FieldWriter applies a field write against the remote store.
type FieldWriter interface {
	UpdateField(ctx context.Context, name, subjectID string, value int, lastUpdated string) error
}

type op struct {
	write FieldWrite
	done  chan error
}

// Dispatcher owns the write queue and the consumer goroutine.
type Dispatcher struct {
	writer   FieldWriter
	capacity int
	log      logger.Logger

	ops chan op

	mu      sync.Mutex
	started bool
	closed  bool
	loopEnd chan struct{}
}

// New constructs a Dispatcher for the given writer.
func New(writer FieldWriter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		writer:   writer,
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ops = make(chan op, d.capacity)
	d.loopEnd = make(chan struct{})
	return d
}

// Start launches the consumer loop. Safe to call once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	if d.log == nil {
		d.log = logger.Get()
	}
	d.started = true
	go d.loop(ctx)
}

// Submit enqueues a field write. The returned channel delivers the remote
// result exactly once. Returns false when the queue is full or closed.
func (d *Dispatcher) Submit(ctx context.Context, w FieldWrite) (<-chan error, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || !d.started {
		return nil, false
	}
	if err := ctx.Err(); err != nil {
		return nil, false
	}

	o := op{write: w, done: make(chan error, 1)}
	select {
	case d.ops <- o:
		metrics.UpdateWriteQueueSize(len(d.ops))
		return o.done, true
	default:
		return nil, false // backpressure
	}
}

// Len reports the current queue depth.
func (d *Dispatcher) Len() int {
	return len(d.ops)
}

// Close stops accepting writes and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed || !d.started {
		d.closed = true
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ops)
	d.mu.Unlock()

	<-d.loopEnd
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer close(d.loopEnd)
	for o := range d.ops {
		start := time.Now()
		err := d.writer.UpdateField(ctx, o.write.Name, o.write.SubjectID, o.write.Value, o.write.LastUpdated)
		metrics.RecordRemoteWriteLatency(float64(time.Since(start).Milliseconds()))
		metrics.UpdateWriteQueueSize(len(d.ops))
		if err != nil {
			metrics.RecordRemoteWriteFailure("update_field")
			d.log.Warn(ctx, "remote field write failed",
				logger.String("user", o.write.Name),
				logger.String("subject", o.write.SubjectID),
				logger.Error(err),
			)
		}
		o.done <- err
		close(o.done)
	}
}
