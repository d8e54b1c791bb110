package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Store держит все in-memory коллекции под одним mutex, чтобы операции,
// затрагивающие несколько сущностей (резервирование остатков + запись
// заказа), оставались атомарными, как транзакции в PostgreSQL-бэкенде.
type Store struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	products  map[string]domain.Product
	orders    map[string]domain.Order
	users     map[string]domain.User
}

// NewStore создаёт пустое in-memory хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]domain.Customer),
		products:  make(map[string]domain.Product),
		orders:    make(map[string]domain.Order),
		users:     make(map[string]domain.User),
	}
}

// cloneOrder копирует заказ вместе со слайсом позиций, чтобы изменения
// снаружи не задевали состояние хранилища.
func cloneOrder(o domain.Order) domain.Order {
	cp := o
	cp.Lines = make([]domain.OrderLine, len(o.Lines))
	copy(cp.Lines, o.Lines)
	return cp
}
