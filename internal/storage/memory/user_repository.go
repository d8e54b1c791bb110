package memory

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type userRepositoryInMemory struct {
	store *Store
}

// NewUserRepository возвращает in-memory реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepositoryInMemory{store: store}
}

func (r *userRepositoryInMemory) Create(_ context.Context, u domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return domain.ErrUsernameTaken
		}
	}

	s.users[u.ID] = u
	return nil
}

func (r *userRepositoryInMemory) GetByUsername(_ context.Context, username string) (domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
