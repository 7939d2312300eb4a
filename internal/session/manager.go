package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
)

// TimeoutHandler closes an attempt whose time has run out. It must be safe
// to call for an attempt that was concurrently closed by a manual submit;
// the store-level conditional close makes that a no-op.
type TimeoutHandler interface {
	HandleTimeout(ctx context.Context, attemptID string) error
}

// Manager tracks every open attempt and drives its countdown with a
// periodic tick. The tick only recomputes the derived remaining time; the
// attempt itself never stores a counter, so there is nothing to drift.
//
// Watchers live on the manager's own lifecycle, not on the lifecycle of
// whichever request started the attempt: a countdown must keep running
// long after the start request has completed.
type Manager struct {
	handler TimeoutHandler
	logger  *slog.Logger
	clock   func() time.Time
	tick    time.Duration

	base context.Context
	stop context.CancelFunc

	mu   sync.Mutex
	open map[string]*watcher
}

type watcher struct {
	cancel context.CancelFunc
}

type Option func(*Manager)

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithTickInterval overrides the one-second tick, for tests.
func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) { m.tick = d }
}

func NewManager(handler TimeoutHandler, logger *slog.Logger, opts ...Option) *Manager {
	base, stop := context.WithCancel(context.Background())
	m := &Manager{
		handler: handler,
		logger:  logger,
		clock:   time.Now,
		tick:    time.Second,
		base:    base,
		stop:    stop,
		open:    make(map[string]*watcher),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Track starts the countdown for an open attempt. Tracking an attempt that
// is already tracked restarts its watcher.
func (m *Manager) Track(attempt *models.Attempt) {
	if attempt.Closed() {
		return
	}

	watchCtx, cancel := context.WithCancel(m.base)
	w := &watcher{cancel: cancel}

	m.mu.Lock()
	if prev, ok := m.open[attempt.ID]; ok {
		prev.cancel()
	}
	m.open[attempt.ID] = w
	m.mu.Unlock()

	m.logger.Debug("Tracking attempt countdown",
		"attempt_id", attempt.ID,
		"remaining", attempt.RemainingTime(m.clock()))

	go m.watch(watchCtx, attempt, w)
}

// Untrack stops the countdown, typically after a manual submit.
func (m *Manager) Untrack(attemptID string) {
	m.mu.Lock()
	w, ok := m.open[attemptID]
	if ok {
		delete(m.open, attemptID)
	}
	m.mu.Unlock()

	if ok {
		w.cancel()
	}
}

// Restore re-registers every open attempt from the store, so countdowns
// survive a process restart. Attempts whose deadline passed while the
// process was down are expired on the first tick. The context covers the
// store query only; the countdowns themselves outlive it.
func (m *Manager) Restore(ctx context.Context, repo repositories.Repository) error {
	attempts, err := repo.Attempt().GetOpenAttempts(ctx)
	if err != nil {
		return err
	}

	for _, attempt := range attempts {
		m.Track(attempt)
	}

	m.logger.Info("Restored open attempt countdowns", "count", len(attempts))
	return nil
}

// Shutdown cancels all watchers. Open attempts stay open in the store and
// are picked up again by Restore.
func (m *Manager) Shutdown() {
	m.stop()

	m.mu.Lock()
	for id := range m.open {
		delete(m.open, id)
	}
	m.mu.Unlock()
}

// TrackedCount reports how many attempts are currently being watched.
func (m *Manager) TrackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

func (m *Manager) watch(ctx context.Context, attempt *models.Attempt, w *watcher) {
	defer m.remove(attempt.ID, w)

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if attempt.RemainingTime(m.clock()) > 0 {
				continue
			}

			// Deadline reached. HandleTimeout re-checks status at the
			// store, so losing the race against a manual submit is fine.
			if err := m.handler.HandleTimeout(ctx, attempt.ID); err != nil {
				m.logger.Error("Failed to expire attempt",
					"attempt_id", attempt.ID,
					"error", err)
			}
			return
		}
	}
}

// remove drops the registry entry only if it still belongs to this watcher,
// so an exiting watcher never evicts a successor registered by a re-Track.
func (m *Manager) remove(attemptID string, w *watcher) {
	m.mu.Lock()
	if current, ok := m.open[attemptID]; ok && current == w {
		delete(m.open, attemptID)
	}
	m.mu.Unlock()
}
