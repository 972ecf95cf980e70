package store

import (
	"sync"
	"time"

	"booktracker/internal/util"
)

type memSession struct {
	userID  string
	expires time.Time
}

// MemorySessionStore keeps sessions in-process (single instance only).
type MemorySessionStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	sess map[string]memSession
	now  func() time.Time
}

// NewMemorySessionStore builds an in-memory session store.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:  ttl,
		sess: make(map[string]memSession),
		now:  time.Now,
	}
}

// NewSession issues a token for userID.
func (s *MemorySessionStore) NewSession(userID string) (string, error) {
	token := util.NewSessionToken()
	s.mu.Lock()
	s.sess[token] = memSession{userID: userID, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

// GetUserIDByToken resolves token to user ID. Expired tokens are dropped.
func (s *MemorySessionStore) GetUserIDByToken(token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sess[token]
	if !ok {
		return "", false, nil
	}
	if !s.now().Before(sess.expires) {
		delete(s.sess, token)
		return "", false, nil
	}
	return sess.userID, true, nil
}

// DeleteSession removes a token.
func (s *MemorySessionStore) DeleteSession(token string) error {
	s.mu.Lock()
	delete(s.sess, token)
	s.mu.Unlock()
	return nil
}

// DeleteUserSessions removes every token issued to userID.
func (s *MemorySessionStore) DeleteUserSessions(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sess {
		if sess.userID == userID {
			delete(s.sess, token)
		}
	}
	return nil
}

var (
	_ SessionStore = (*MemorySessionStore)(nil)
	_ SessionStore = (*RedisSessionStore)(nil)
	_ SessionStore = (*JWTSessionStore)(nil)
)
