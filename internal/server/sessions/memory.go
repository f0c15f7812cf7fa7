package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/server/models"
)

// defaultJanitorInterval is how often the memory store purges expired
// sessions.
const defaultJanitorInterval = time.Minute

// MemoryStore is the process-local session backend. It is safe for
// concurrent use. Expired entries are dropped lazily on Get and swept by a
// janitor goroutine; call Close to stop the janitor.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session

	stop chan struct{}
	once sync.Once
}

// NewMemoryStore constructs a memory store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*models.Session),
		stop:     make(chan struct{}),
	}
	go s.janitor(defaultJanitorInterval)
	return s
}

func (s *MemoryStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.purge(now)
		}
	}
}

func (s *MemoryStore) purge(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
		}
	}
}

// Create issues a new session for the user.
func (s *MemoryStore) Create(ctx context.Context, user *models.User, ttl time.Duration) (*models.Session, error) {
	session := &models.Session{
		Token:     newToken(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(ttl),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session, nil
}

// Get resolves a token to its session. Unknown and expired tokens both
// yield common.ErrorNotFound; expired entries are removed on the way out.
func (s *MemoryStore) Get(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, common.ErrorNotFound
	}
	if session.Expired(time.Now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, common.ErrorNotFound
	}

	copied := *session
	return &copied, nil
}

// Delete destroys the session binding; deleting an unknown token is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}
