package session

import (
	"context"
	"sync"
	"time"
)

// Store persists sessions between requests.
type Store interface {
	// Load returns nil, nil when no live session has the id.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Purger is implemented by stores that need expired sessions removed
// periodically.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// MemoryStore keeps sessions in process memory. A session expires ttl after
// its last save.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*memoryEntry
}

type memoryEntry struct {
	session *Session
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: map[string]*memoryEntry{}}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.sessions, id)
		return nil, nil
	}
	return e.session, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	if s.Invalidated() {
		return m.Delete(context.Background(), s.ID())
	}
	m.mu.Lock()
	m.sessions[s.ID()] = &memoryEntry{session: s, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	s.markClean()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Purge drops expired sessions and returns how many were removed.
func (m *MemoryStore) Purge(context.Context) (int, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if !now.Before(e.expires) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len counts stored sessions, expired ones included until purged.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
