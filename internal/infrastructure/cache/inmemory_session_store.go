package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/application/report"
)

// DefaultCleanupInterval is how often expired sessions are evicted.
const DefaultCleanupInterval = 5 * time.Minute

type sessionEntry struct {
	session   *report.Session
	expiresAt time.Time // zero means no expiry
}

func (e sessionEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// InMemorySessionStore implements report.SessionStore using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemorySessionStore struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]sessionEntry
	now       func() time.Time
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySessionStore creates a new in-memory session store
// It starts a background goroutine that evicts expired sessions every interval
func NewInMemorySessionStore(interval time.Duration) *InMemorySessionStore {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	store := &InMemorySessionStore{
		entries:  make(map[uuid.UUID]sessionEntry),
		now:      time.Now,
		interval: interval,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Save stores a copy of the session for ttl
func (s *InMemorySessionStore) Save(_ context.Context, session *report.Session, ttl time.Duration) error {
	cp := *session
	cp.Lines = slices.Clone(session.Lines)

	e := sessionEntry{session: &cp}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[session.ID] = e
	return nil
}

// Get returns a copy of the stored session
func (s *InMemorySessionStore) Get(_ context.Context, id uuid.UUID) (*report.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || e.expired(s.now()) {
		return nil, report.ErrSessionNotFound
	}
	cp := *e.session
	cp.Lines = slices.Clone(e.session.Lines)
	return &cp, nil
}

// Delete removes a session. Deleting an unknown id is not an error
func (s *InMemorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (s *InMemorySessionStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemorySessionStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired sessions from the store
func (s *InMemorySessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemorySessionStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ report.SessionStore = (*InMemorySessionStore)(nil)
