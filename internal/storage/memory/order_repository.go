package memory

import (
	"context"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory реализацию OrderRepository.
// Протокол резервирования выполняется целиком под mutex хранилища, поэтому
// конкурентные заказы на один товар сериализуются так же, как row-level
// блокировки в PostgreSQL-бэкенде.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create выполняет протокол резервирования: проверяет клиента, затем по
// каждой позиции в порядке заявки проверяет и списывает остаток, фиксируя
// цену на момент оформления. Любая неудача отбрасывает все накопленные
// списания — под mutex наружу не видно ни одного частичного состояния.
func (r *orderRepositoryInMemory) Create(_ context.Context, draft domain.NewOrder) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.customers[draft.CustomerID]
	if !ok {
		return domain.Order{}, domain.ErrCustomerNotFound
	}

	order := domain.Order{
		ID:              draft.ID,
		CustomerID:      draft.CustomerID,
		CustomerName:    customer.Name,
		Status:          draft.Status,
		OrderDate:       draft.OrderDate,
		Phone:           draft.Phone,
		DeliveryAddress: draft.DeliveryAddress,
		CreatedAt:       draft.CreatedAt,
	}

	// Списания накапливаются локально и применяются только после того,
	// как прошли все позиции; повторение товара в двух позициях учитывается.
	reserved := make(map[string]int32, len(draft.Lines))

	var total int64
	lines := make([]domain.OrderLine, 0, len(draft.Lines))
	for _, req := range draft.Lines {
		product, ok := s.products[req.ProductID]
		if !ok {
			return domain.Order{}, domain.ErrProductNotFound
		}

		available := product.Stock - reserved[product.ID]
		if available < req.Qty {
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   req.Qty,
				Available:   available,
			}
		}
		reserved[product.ID] += req.Qty

		subtotal := int64(req.Qty) * product.PriceMinor
		lines = append(lines, domain.OrderLine{
			ID:            req.ID,
			OrderID:       draft.ID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			Qty:           req.Qty,
			PriceMinor:    product.PriceMinor,
			SubtotalMinor: subtotal,
			CreatedAt:     draft.CreatedAt,
		})
		total += subtotal
	}

	for id, qty := range reserved {
		product := s.products[id]
		product.Stock -= qty
		s.products[id] = product
	}

	order.Lines = lines
	order.AmountMinor = total
	s.orders[order.ID] = cloneOrder(order)

	return cloneOrder(order), nil
}

// Get возвращает заказ или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// List возвращает заказы от новых к старым по дате заказа.
func (r *orderRepositoryInMemory) List(_ context.Context, scope domain.OrderScope) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if !scope.Allows(order) {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderDate.Equal(result[j].OrderDate) {
			return result[i].OrderDate.After(result[j].OrderDate)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// UpdateStatus меняет только статус и отметку обновления; сумма и остатки
// не пересчитываются.
func (r *orderRepositoryInMemory) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, at time.Time) (domain.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	order.Status = status
	order.UpdatedAt = at
	s.orders[id] = order

	return cloneOrder(order), nil
}

// Delete возвращает остатки по каждой позиции и удаляет заказ — точная
// инверсия списаний при создании.
func (r *orderRepositoryInMemory) Delete(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}

	for _, line := range order.Lines {
		if product, ok := s.products[line.ProductID]; ok {
			product.Stock += line.Qty
			s.products[line.ProductID] = product
		}
	}

	delete(s.orders, id)
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
