package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/researchmate/webclient/internal/metrics"
)

// MaxSessions is the default cap on sessions held in memory.
const MaxSessions = 1000

// Manager holds one coordinator per browser session.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*entry
	uploader    Uploader
	logger      *slog.Logger
	metrics     *metrics.Metrics
	maxSessions int
	now         func() time.Time
}

type entry struct {
	coord        *Coordinator
	lastAccessed time.Time
}

// NewManager creates a manager with the default session cap.
func NewManager(uploader Uploader, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return NewManagerWithLimit(uploader, logger, m, MaxSessions)
}

// NewManagerWithLimit creates a manager holding at most maxSessions sessions.
func NewManagerWithLimit(uploader Uploader, logger *slog.Logger, m *metrics.Metrics, maxSessions int) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSessions <= 0 {
		maxSessions = MaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*entry),
		uploader:    uploader,
		logger:      logger,
		metrics:     m,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Get returns the coordinator for id and refreshes its access time.
func (m *Manager) Get(id string) (*Coordinator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastAccessed = m.now()
	return e.coord, true
}

// GetOrCreate returns the coordinator for id, creating a new session with a
// fresh ID when id is empty or unknown.
func (m *Manager) GetOrCreate(id string) *Coordinator {
	if id != "" {
		if c, ok := m.Get(id); ok {
			return c
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}

	newID := uuid.New().String()
	c := NewCoordinator(newID, m.uploader, m.logger, m.metrics)
	m.sessions[newID] = &entry{coord: c, lastAccessed: m.now()}
	m.metrics.SessionsActive(len(m.sessions))
	return c
}

// Delete drops a session.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	m.metrics.SessionsActive(len(m.sessions))
}

// Count returns the number of sessions held.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions not accessed within maxAge. Sessions
// with an upload in flight are kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for id, e := range m.sessions {
		if e.lastAccessed.Before(cutoff) && !e.coord.Busy() {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed", "count", removed, "remaining", len(m.sessions))
	}
	m.metrics.SessionsActive(len(m.sessions))
	return removed
}

// evictOldestLocked drops the least recently used idle session.
func (m *Manager) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range m.sessions {
		if e.coord.Busy() {
			continue
		}
		if oldestID == "" || e.lastAccessed.Before(oldest) {
			oldestID = id
			oldest = e.lastAccessed
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		m.logger.Warn("session limit reached, evicted oldest session", "session", oldestID)
	}
}
