package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type sessionStoreInMemory struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewSessionStore возвращает in-memory реализацию SessionStore для
// локальной разработки и тестов. Store внедряется зависимостью — никакого
// глобального состояния процесса.
func NewSessionStore() domain.SessionStore {
	return &sessionStoreInMemory{
		sessions: make(map[string]domain.Session),
	}
}

func (s *sessionStoreInMemory) Put(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.Token] = sess
	return nil
}

func (s *sessionStoreInMemory) Get(_ context.Context, token string) (domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		// Просроченный токен убираем лениво при обращении.
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionStoreInMemory) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

var _ domain.SessionStore = (*sessionStoreInMemory)(nil)
