package memory

import (
	"context"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRepositoryInMemory struct {
	store *Store
}

// NewProductRepository возвращает in-memory реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepositoryInMemory{store: store}
}

func (r *productRepositoryInMemory) Create(_ context.Context, p domain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[p.ID] = p
	return nil
}

func (r *productRepositoryInMemory) Get(_ context.Context, id string) (domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *productRepositoryInMemory) List(_ context.Context) ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (r *productRepositoryInMemory) ApplyPatch(_ context.Context, id string, patch domain.ProductPatch, now time.Time) (domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	// Чтение и запись под одной блокировкой с резервированием: патч без
	// поля stock не может вернуть уже списанные остатки.
	patch.Apply(&p, now)
	s.products[id] = p

	return p, nil
}

func (r *productRepositoryInMemory) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	// Товар с живыми позициями заказов удалять запрещено.
	for _, order := range s.orders {
		for _, line := range order.Lines {
			if line.ProductID == id {
				return domain.ErrEntityInUse
			}
		}
	}

	delete(s.products, id)
	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
