package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type customerRepositoryInMemory struct {
	store *Store
}

// NewCustomerRepository возвращает in-memory реализацию CustomerRepository.
func NewCustomerRepository(store *Store) domain.CustomerRepository {
	return &customerRepositoryInMemory{store: store}
}

func (r *customerRepositoryInMemory) Create(_ context.Context, c domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if strings.EqualFold(existing.Email, c.Email) {
			return domain.ErrEmailTaken
		}
	}

	s.customers[c.ID] = c
	return nil
}

func (r *customerRepositoryInMemory) Get(_ context.Context, id string) (domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return c, nil
}

func (r *customerRepositoryInMemory) List(_ context.Context) ([]domain.Customer, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (r *customerRepositoryInMemory) Update(_ context.Context, c domain.Customer) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[c.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	for id, existing := range s.customers {
		if id != c.ID && strings.EqualFold(existing.Email, c.Email) {
			return domain.ErrEmailTaken
		}
	}

	s.customers[c.ID] = c
	return nil
}

func (r *customerRepositoryInMemory) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	// Удаление клиента с живыми заказами запрещено.
	for _, order := range s.orders {
		if order.CustomerID == id {
			return domain.ErrEntityInUse
		}
	}

	delete(s.customers, id)
	return nil
}

func (r *customerRepositoryInMemory) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, c := range s.customers {
		if id == excludeID {
			continue
		}
		if strings.EqualFold(c.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
