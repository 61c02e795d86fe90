package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessions keeps login tokens in memory. Tokens do not survive a restart.
type sessions struct {
	mu  sync.Mutex
	m   map[string]Session
	ttl time.Duration
	now func() time.Time
}

func newSessions(ttl time.Duration, now func() time.Time) *sessions {
	return &sessions{m: map[string]Session{}, ttl: ttl, now: now}
}

func (s *sessions) create(username string, role Role) Session {
	session := Session{
		Token:     uuid.NewString(),
		Username:  username,
		Role:      role,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.m[session.Token] = session
	return session
}

// sweep drops expired sessions. Callers hold mu.
func (s *sessions) sweep() {
	now := s.now()
	for token, session := range s.m {
		if !now.Before(session.ExpiresAt) {
			delete(s.m, token)
		}
	}
}

func (s *sessions) lookup(token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.m[token]
	if !ok {
		return Session{}, ErrInvalidSession
	}
	if !s.now().Before(session.ExpiresAt) {
		delete(s.m, token)
		return Session{}, ErrInvalidSession
	}
	return session, nil
}

func (s *sessions) revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, token)
}

// revokeUser drops every session of username.
func (s *sessions) revokeUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.m {
		if session.Username == username {
			delete(s.m, token)
		}
	}
}
