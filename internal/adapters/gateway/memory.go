package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/sweetshooter/study-progress-tracker/internal/domain/progress"
)

// Memory is a map-backed Gateway. It backs the "memory" store driver and
// doubles as the fake remote store in tests, where the With*Error options
// inject remote failures per operation.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]progress.Record

	failList   error
	failCreate error
	failUpdate error
	failDelete error
}

// MemoryOption applies a configuration option to the Memory gateway.
type MemoryOption func(*Memory)

// WithSeed preloads documents into the store.
func WithSeed(recs ...progress.Record) MemoryOption {
	return func(m *Memory) {
		for _, r := range recs {
			m.docs[r.Name] = r.Clone()
		}
	}
}

// WithListError makes ListAll fail with the given error.
func WithListError(err error) MemoryOption {
	return func(m *Memory) { m.failList = err }
}

// WithCreateError makes Create fail with the given error.
func WithCreateError(err error) MemoryOption {
	return func(m *Memory) { m.failCreate = err }
}

// WithUpdateError makes UpdateField fail with the given error.
func WithUpdateError(err error) MemoryOption {
	return func(m *Memory) { m.failUpdate = err }
}

// WithDeleteError makes Delete fail with the given error.
func WithDeleteError(err error) MemoryOption {
	return func(m *Memory) { m.failDelete = err }
}

// NewMemory creates an in-memory gateway.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{docs: make(map[string]progress.Record)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListAll returns a deep copy of every stored document.
func (m *Memory) ListAll(ctx context.Context) ([]progress.Record, error) {
	if m.failList != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, m.failList)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]progress.Record, 0, len(m.docs))
	for _, rec := range m.docs {
		out = append(out, rec.Clone())
	}
	return out, nil
}

// Create stores the full document at key rec.Name, overwriting any existing one.
func (m *Memory) Create(ctx context.Context, rec progress.Record) error {
	if m.failCreate != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, m.failCreate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[rec.Name] = rec.Clone()
	return nil
}

// UpdateField updates one progress entry plus lastUpdated.
func (m *Memory) UpdateField(ctx context.Context, name, subjectID string, value int, lastUpdated string) error {
	if m.failUpdate != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, m.failUpdate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.docs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	rec = rec.Clone()
	rec.Progress[subjectID] = value
	rec.LastUpdated = lastUpdated
	m.docs[name] = rec
	return nil
}

// Delete removes the document at key name.
func (m *Memory) Delete(ctx context.Context, name string) error {
	if m.failDelete != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, m.failDelete)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, name)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }

// Len reports the number of stored documents. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Get returns a copy of one document. Test helper.
func (m *Memory) Get(name string) (progress.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.docs[name]
	if !ok {
		return progress.Record{}, false
	}
	return rec.Clone(), true
}
