// internal/store/memory.go
//
// In-memory session store.
// Each session owns one env.Adapter; adapters are single-threaded, so every
// call goes through Session.Do, which serialises access per session.
//
// Characteristics:
//   - Sessions keyed by ID in a map guarded by an RWMutex.
//   - State is lost when the process restarts (finished episodes are persisted
//     separately through internal/results).
//   - Idle sessions are dropped by Sweep.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/woodoku-env/internal/env"
)

// ErrNotFound is returned by Get for an unknown or expired session.
var ErrNotFound = errors.New("session not found")

// Session is one live environment.
type Session struct {
	ID        string
	DailyDate string // set for daily sessions
	CreatedAt time.Time

	mu       sync.Mutex // serialises adapter access
	adapter  *env.Adapter
	lastUsed time.Time
}

// NewSession wraps a with a fresh random ID.
func NewSession(a *env.Adapter, dailyDate string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		DailyDate: dailyDate,
		CreatedAt: now,
		adapter:   a,
		lastUsed:  now,
	}
}

// Do runs fn with exclusive access to the session's adapter.
func (s *Session) Do(fn func(a *env.Adapter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = time.Now()
	return fn(s.adapter)
}

// LastUsed reports when the session was last driven.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Store defines the persistence interface for live sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Sweep drops sessions idle since before cutoff and returns how many.
	Sweep(ctx context.Context, cutoff time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*Session)}
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
