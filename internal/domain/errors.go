package domain

import (
	"errors"
	"fmt"
)

// ErrValidation — базовая ошибка валидации входных данных. Все конкретные
// ошибки валидации заворачивают её, поэтому транспорт различает класс
// через errors.Is(err, ErrValidation).
var ErrValidation = errors.New("validation failed")

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Ошибки валидации полей.
var (
	ErrNameRequired  = validationError("name is required")
	ErrEmailRequired = validationError("email is required")
	ErrPhoneRequired = validationError("phone is required")
	ErrPriceNegative = validationError("price must not be negative")
	ErrStockNegative = validationError("stock must not be negative")

	ErrCustomerRequired    = validationError("customer is required")
	ErrLinesRequired       = validationError("order must contain at least one line")
	ErrLineQtyInvalid      = validationError("line quantity must be positive")
	ErrLineProductRequired = validationError("line product is required")
	ErrLinePriceInvalid    = validationError("line price must not be negative")
	ErrStatusRequired      = validationError("status is required")
	ErrStatusUnknown       = validationError("unknown order status")
	ErrSubtotalMismatch    = validationError("line subtotal does not match qty * price")
	ErrAmountMismatch      = validationError("order amount does not match sum of lines")

	ErrUsernameRequired = validationError("username is required")
	ErrPasswordRequired = validationError("password is required")
	ErrRoleUnknown      = validationError("unknown role")
)

// Ошибки отсутствия сущностей.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrSessionNotFound  = errors.New("session not found")
)

// Ошибки конфликтов состояния.
var (
	ErrEmailTaken    = errors.New("email is already taken")
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrEntityInUse — на сущность ссылаются другие записи, удаление запрещено.
	ErrEntityInUse = errors.New("entity is referenced by other records")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Ошибки idempotency-слоя.
var (
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key is used with a different request")
)

// InsufficientStockError — недостаточно остатка для резервирования позиции.
// Несёт детали конфликта: какой товар, сколько запрошено, сколько доступно.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int32
	Available   int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// AsInsufficientStock извлекает InsufficientStockError из цепочки ошибок.
func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var target *InsufficientStockError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsNotFound сообщает, является ли ошибка ошибкой отсутствия сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}
