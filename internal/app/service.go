// Package app holds the session controller: the stateful core that owns the
// in-memory roster and the single active session, and keeps both consistent
// with the remote document store.
//
// All mutation entry points serialize on one mutex so the roster and session
// always move together. Remote writes for progress updates flow
// through the dispatch queue in submission order; account creation and
// deletion call the store synchronously because those two operations abort
// on remote failure instead of applying local state optimistically.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sweetshooter/study-progress-tracker/internal/adapters/gateway"
	"github.com/sweetshooter/study-progress-tracker/internal/adapters/mq/dispatch"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/catalog"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/chart"
	"github.com/sweetshooter/study-progress-tracker/internal/domain/progress"
	"github.com/sweetshooter/study-progress-tracker/pkg/logger"
	"github.com/sweetshooter/study-progress-tracker/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWriteQueueSize = 1024
)

// Snapshot is the read-only view the view layer renders from.
type Snapshot struct {
	Roster      []progress.Record `json:"roster"`
	CurrentUser string            `json:"current_user,omitempty"`
}

// ChartData bundles every chart series computed from one roster snapshot.
type ChartData struct {
	Bars      []chart.BarRow   `json:"bars"`
	Pies      []chart.Pie      `json:"pies"`
	Overviews []chart.Overview `json:"overviews"`
}

// Service implements the session controller.
type Service struct {
	mu sync.RWMutex

	cat        *catalog.Catalog
	gw         gateway.Gateway
	dispatcher *dispatch.Dispatcher

	roster  map[string]progress.Record
	current string

	queueSize int
	clock     func() time.Time
	log       logger.Logger
	started   bool
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGateway sets the remote store gateway. Required.
func WithGateway(gw gateway.Gateway) Option {
	return func(s *Service) {
		if gw != nil {
			s.gw = gw
		}
	}
}

// WithCatalog sets the subject catalog.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(s *Service) {
		if cat != nil {
			s.cat = cat
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the wall clock used for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithWriteQueueSize bounds the async remote write queue.
func WithWriteQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cat:       catalog.Default(),
		roster:    make(map[string]progress.Record),
		queueSize: defaultWriteQueueSize,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the write dispatcher and performs the initial roster fetch.
// A failed fetch is returned as an ErrRemoteRead wrap; the service stays
// started with an empty roster so the caller can decide the fallback.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	s.dispatcher = dispatch.New(s.gw,
		dispatch.WithCapacity(s.queueSize),
		dispatch.WithLogger(s.log),
	)
	s.dispatcher.Start(ctx)
	s.started = true
	s.mu.Unlock()

	s.log.Info(ctx, "session controller started",
		logger.Int("subjects", s.cat.Len()),
		logger.Int("writeQueueSize", s.queueSize),
	)
	return s.Refresh(ctx)
}

// Stop drains the write queue and shuts the dispatcher down. The gateway
// connection is owned by whoever opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.dispatcher.Close()
	s.started = false
	s.log.Info(context.Background(), "session controller stopped")
}

// Refresh replaces the whole roster from the remote store. All-or-nothing:
// on failure the in-memory roster is left untouched.
func (s *Service) Refresh(ctx context.Context) error {
	records, err := s.gw.ListAll(ctx)
	if err != nil {
		metrics.RecordRemoteReadFailure()
		return fmt.Errorf("%w: %w", ErrRemoteRead, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.roster = make(map[string]progress.Record, len(records))
	for _, rec := range records {
		s.roster[rec.Name] = rec.Normalized(s.cat)
	}
	// A wholesale replace may drop the logged-in user's record; the session
	// must never point outside the roster.
	if s.current != "" {
		if _, ok := s.roster[s.current]; !ok {
			s.current = ""
		}
	}
	metrics.RecordRosterRefresh()
	s.updateGauges()
	return nil
}

// Login activates the session for nickname, creating a remote record for
// first-time users. Existing nicknames log in purely locally; no password or
// secret is involved.
func (s *Service) Login(ctx context.Context, nickname string) error {
	name := strings.TrimSpace(nickname)
	if name == "" {
		return ErrEmptyNickname
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roster[name]; ok {
		s.current = name
		metrics.RecordLogin()
		s.updateGauges()
		return nil
	}

	rec := progress.NewRecord(s.cat, name, progress.Timestamp(s.clock()))
	if err := s.gw.Create(ctx, rec); err != nil {
		metrics.RecordRemoteWriteFailure("create")
		return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	s.roster[name] = rec
	s.current = name
	metrics.RecordLogin()
	metrics.RecordSignup()
	s.updateGauges()
	s.log.Info(ctx, "created progress record for new user", logger.String("user", name))
	return nil
}

// Logout clears the session unconditionally. No remote interaction.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != "" {
		metrics.RecordLogout()
	}
	s.current = ""
	s.updateGauges()
}

// DeleteAccount removes the current user's remote document and, only once
// the store confirms, the roster entry and session. A failed delete leaves
// local state exactly as it was.
func (s *Service) DeleteAccount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return ErrNoSession
	}
	name := s.current
	if err := s.gw.Delete(ctx, name); err != nil {
		metrics.RecordRemoteWriteFailure("delete")
		return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	delete(s.roster, name)
	s.current = ""
	metrics.RecordAccountDeletion()
	s.updateGauges()
	s.log.Info(ctx, "deleted account", logger.String("user", name))
	return nil
}

// UpdateProgress clamps rawValue into the subject's range, applies it to the
// current user's record immediately, then pushes the field write to the
// remote store. A remote failure is reported but the local mutation is kept;
// reconciliation is a later Refresh, never an automatic rollback.
func (s *Service) UpdateProgress(ctx context.Context, subjectID string, rawValue int) error {
	clamped, err := progress.Clamp(s.cat, subjectID, rawValue)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if s.current == "" {
		s.mu.Unlock()
		return ErrNoSession
	}
	rec := s.roster[s.current].Clone()
	rec.Progress[subjectID] = clamped
	rec.LastUpdated = progress.Timestamp(s.clock())
	s.roster[s.current] = rec
	metrics.RecordProgressUpdate()

	// Submit while still holding the lock so remote writes keep the local
	// mutation order; the wait happens outside it.
	done, ok := s.dispatcher.Submit(ctx, dispatch.FieldWrite{
		Name:        rec.Name,
		SubjectID:   subjectID,
		Value:       clamped,
		LastUpdated: rec.LastUpdated,
	})
	s.mu.Unlock()

	if !ok {
		metrics.RecordRemoteWriteFailure("update_field")
		return fmt.Errorf("%w: write queue refused the update", ErrRemoteWrite)
	}
	if err := <-done; err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteWrite, err)
	}
	return nil
}

// Snapshot returns a deep-copied view of the roster (sorted by name) and the
// active session.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster := make([]progress.Record, 0, len(s.roster))
	for _, rec := range s.roster {
		roster = append(roster, rec.Clone())
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].Name < roster[j].Name })
	return Snapshot{Roster: roster, CurrentUser: s.current}
}

// Charts projects the current roster into every chart series.
func (s *Service) Charts() ChartData {
	snap := s.Snapshot()
	return ChartData{
		Bars:      chart.Bars(s.cat, snap.Roster),
		Pies:      chart.Pies(s.cat, snap.Roster),
		Overviews: chart.Overviews(s.cat, snap.Roster),
	}
}

// Catalog exposes the subject catalog to the view layer.
func (s *Service) Catalog() *catalog.Catalog {
	return s.cat
}

// PercentFor computes the current user's completion for one subject.
func (s *Service) PercentFor(subjectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return 0
	}
	return progress.PercentFor(s.cat, s.roster[s.current], subjectID)
}

// WatchedFor returns the current user's stored watched count for one subject.
func (s *Service) WatchedFor(subjectID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return 0
	}
	return s.roster[s.current].Progress[subjectID]
}

// GetStats returns service statistics for monitoring and refreshes the
// roster, session and queue gauges so periodic callers keep scrapes current.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"rosterSize":    len(s.roster),
		"sessionActive": s.current != "",
		"subjects":      s.cat.Len(),
	}
	if s.current != "" {
		stats["currentUser"] = s.current
	}
	if s.dispatcher != nil {
		depth := s.dispatcher.Len()
		stats["writeQueueLength"] = depth
		metrics.UpdateWriteQueueSize(depth)
	}
	s.updateGauges()
	return stats
}

// updateGauges refreshes the roster/session gauges. Callers hold the lock.
func (s *Service) updateGauges() {
	metrics.UpdateRosterSize(len(s.roster))
	metrics.UpdateSessionActive(s.current != "")
}
