package memory

import (
	"context"
	"sync"
	"time"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/repository"
)

type session struct {
	userID    string
	expiresAt time.Time
}

// SessionStore keeps refresh sessions in a map with lazy expiry.
type SessionStore struct {
	mu       sync.RWMutex
	now      func() time.Time
	sessions map[string]session
}

// NewSessionStore returns an empty session store.
func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{now: now, sessions: map[string]session{}}
}

func (s *SessionStore) Save(_ context.Context, tokenID, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenID] = session{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *SessionStore) Lookup(_ context.Context, tokenID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[tokenID]
	if !ok || !s.now().Before(sess.expiresAt) {
		return "", repository.ErrNotFound
	}
	return sess.userID, nil
}

func (s *SessionStore) Delete(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}
