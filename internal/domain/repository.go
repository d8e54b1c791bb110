package domain

import (
	"context"
	"time"
)

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента; дубликат email даёт ErrEmailTaken.
	Create(ctx context.Context, c Customer) error
	// Get возвращает клиента или ErrCustomerNotFound.
	Get(ctx context.Context, id string) (Customer, error)
	// List возвращает клиентов от новых к старым по дате создания.
	List(ctx context.Context) ([]Customer, error)
	// Update перезаписывает запись клиента.
	Update(ctx context.Context, c Customer) error
	// Delete удаляет клиента; ErrEntityInUse, пока на него ссылаются заказы.
	Delete(ctx context.Context, id string) error
	// EmailExists проверяет занятость email, исключая excludeID (может быть пустым).
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	Create(ctx context.Context, p Product) error
	// Get возвращает товар или ErrProductNotFound.
	Get(ctx context.Context, id string) (Product, error)
	// List возвращает товары от новых к старым по дате создания.
	List(ctx context.Context) ([]Product, error)
	// ApplyPatch читает и перезаписывает товар атомарно, под той же
	// сериализацией, что и резервирование остатков: патч без поля stock
	// не может перезаписать остаток устаревшим прочитанным значением.
	ApplyPatch(ctx context.Context, id string, patch ProductPatch, now time.Time) (Product, error)
	// Delete удаляет товар; ErrEntityInUse, пока на него ссылаются позиции заказов.
	Delete(ctx context.Context, id string) error
}

// OrderRepository описывает требования к хранилищу заказов.
// Create и Delete обязаны выполняться как одна атомарная единица:
// ни одно списание/возврат остатка не видно снаружи без коммита целиком.
type OrderRepository interface {
	// Create выполняет протокол резервирования по заявке и возвращает
	// гидрированный заказ. Возможные ошибки: ErrCustomerNotFound,
	// ErrProductNotFound, *InsufficientStockError.
	Create(ctx context.Context, draft NewOrder) (Order, error)
	// Get возвращает гидрированный заказ или ErrOrderNotFound.
	Get(ctx context.Context, id string) (Order, error)
	// List возвращает заказы от новых к старым по дате заказа,
	// при непустом scope — только заказы этого клиента.
	List(ctx context.Context, scope OrderScope) ([]Order, error)
	// UpdateStatus меняет только статус и отметку обновления.
	UpdateStatus(ctx context.Context, id string, status OrderStatus, at time.Time) (Order, error)
	// Delete возвращает остатки по каждой позиции (компенсация) и удаляет
	// заказ вместе с позициями.
	Delete(ctx context.Context, id string) error
}

// UserRepository описывает требования к хранилищу учётных записей.
type UserRepository interface {
	// Create сохраняет учётную запись; дубликат логина даёт ErrUsernameTaken.
	Create(ctx context.Context, u User) error
	// GetByUsername возвращает запись или ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (User, error)
}
