package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/enedis-gateway/internal/errors"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// InMemoryStore is a thread-safe in-memory Store. Expired entries are invisible to
// readers and removed by DeleteExpired.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	nowFunc  func() time.Time
}

type InMemoryOption func(*InMemoryStore)

func WithNowFunc(now func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		s.nowFunc = now
	}
}

func NewInMemoryStore(options ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]memoryEntry),
		nowFunc:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Save(_ context.Context, sessionID string, session Session, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("session id cannot be empty")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = memoryEntry{session: session, expiresAt: s.nowFunc().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok || !s.nowFunc().Before(entry.expiresAt) {
		return nil, apperrors.ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

func (s *InMemoryStore) Take(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	if !s.nowFunc().Before(entry.expiresAt) {
		return nil, apperrors.ErrSessionNotFound
	}
	session := entry.session
	return &session, nil
}

// DeleteExpired prunes expired sessions and returns how many were removed.
func (s *InMemoryStore) DeleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for id, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunPruner calls DeleteExpired every interval until ctx is done.
func (s *InMemoryStore) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DeleteExpired()
		}
	}
}
