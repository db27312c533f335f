// Package session gives every browser its own board: a Viewer with its own
// selected date painting a Board that only that browser's pages watch.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/salon-booking-board/internal/board"
	"github.com/wolfman30/salon-booking-board/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-board/internal/viewer"
	"github.com/wolfman30/salon-booking-board/pkg/logging"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultMaxSessions   = 1000
	defaultSweepInterval = time.Minute
)

// Session is one browser's board.
type Session struct {
	ID     string
	Viewer *viewer.Viewer
	Board  *board.Board

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// LastSeen is when the session last served a request or dropped a live page.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Config describes how sessions are built and retired.
type Config struct {
	Backend   viewer.Backend
	Options   viewer.Options
	Scheduler viewer.Scheduler

	// Sessions with no live page and no request for IdleTTL are closed.
	IdleTTL time.Duration
	// At MaxSessions the least recently seen session is closed to make room.
	MaxSessions int

	Now func() time.Time
}

// Manager owns the set of live sessions.
type Manager struct {
	ctx     context.Context
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.BoardMetrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns an empty Manager. Viewers started by it load and tick
// under ctx.
func NewManager(ctx context.Context, cfg Config, logger *logging.Logger, m *metrics.BoardMetrics) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		ctx:      ctx,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session with id and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		s.touch(m.cfg.Now())
	}
	return s, ok
}

// Touch marks id as seen without returning it.
func (m *Manager) Touch(id string) {
	m.Get(id)
}

// Create starts a new session on today's date. It returns after the first
// settings and bookings load has been painted.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	logger := m.logger.With("session_id", id)

	b := board.New(m.metrics)
	v := viewer.New(m.cfg.Backend, b, m.cfg.Options, logger, m.metrics)

	s := &Session{ID: id, Viewer: v, Board: b}
	s.touch(m.cfg.Now())

	v.Start(m.ctx, m.cfg.Scheduler)

	m.mu.Lock()
	var evicted *Session
	if len(m.sessions) >= m.cfg.MaxSessions {
		evicted = m.oldestLocked()
		if evicted != nil {
			delete(m.sessions, evicted.ID)
		}
	}
	m.sessions[id] = s
	m.mu.Unlock()

	m.metrics.SessionOpened()
	if evicted != nil {
		m.close(evicted, "capacity")
	}
	logger.Info("session: created", "date", viewer.APIDate(v.SelectedDate()))
	return s
}

// oldestLocked prefers sessions nobody is watching.
func (m *Manager) oldestLocked() *Session {
	var idle, oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.LastSeen().Before(oldest.LastSeen()) {
			oldest = s
		}
		if s.Board.Subscribers() == 0 && (idle == nil || s.LastSeen().Before(idle.LastSeen())) {
			idle = s
		}
	}
	if idle != nil {
		return idle
	}
	return oldest
}

// Len reports how many sessions are open.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than IdleTTL that have no live page.
// It returns the number closed.
func (m *Manager) Sweep() int {
	cutoff := m.cfg.Now().Add(-m.cfg.IdleTTL)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) && s.Board.Subscribers() == 0 {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		m.close(s, "idle")
	}
	return len(stale)
}

// Run sweeps every interval until ctx ends, then closes every session.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("session: swept idle sessions", "closed", n, "open", m.Len())
			}
		}
	}
}

// CloseAll stops every session's clock and refresh.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		m.close(s, "shutdown")
	}
}

func (m *Manager) close(s *Session, reason string) {
	s.Viewer.Stop()
	m.metrics.SessionClosed()
	m.logger.Info("session: closed", "session_id", s.ID, "reason", reason)
}
