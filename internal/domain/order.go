package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в витрине.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, остатки зарезервированы, обработка не начата.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ взят в обработку.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted — заказ исполнен.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid проверяет принадлежность статуса закрытому множеству.
// Таблица переходов сознательно не вводится: любой известный статус
// может сменить любой другой.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderLine представляет одну позицию заказа. После создания позиция
// неизменяема: цена зафиксирована на момент оформления и не следует
// за текущей ценой товара.
type OrderLine struct {
	ID      string
	OrderID string
	// ProductID — ссылка на товар каталога.
	ProductID string
	// ProductName — имя товара на момент чтения, заполняется при гидрации.
	ProductName string
	// Qty — количество единиц, всегда >= 1.
	Qty int32
	// PriceMinor — цена за единицу в минимальных денежных единицах,
	// снимок цены товара на момент оформления заказа.
	PriceMinor int64
	// SubtotalMinor = Qty * PriceMinor.
	SubtotalMinor int64
	CreatedAt     time.Time
}

// Order агрегирует шапку заказа и его позиции.
type Order struct {
	ID         string
	CustomerID string
	// CustomerName заполняется при гидрации из справочника клиентов.
	CustomerName string
	Status       OrderStatus
	OrderDate    time.Time
	// AmountMinor — производная сумма, всегда равна сумме subtotal позиций.
	AmountMinor int64
	// Контактные данные доставки, опциональны.
	Phone           string
	DeliveryAddress string
	Lines           []OrderLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusUnknown)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		if line.SubtotalMinor != int64(line.Qty)*line.PriceMinor {
			errs = append(errs, ErrSubtotalMismatch)
		}
		calc += line.SubtotalMinor
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// NewOrderLine — запрошенная позиция при оформлении заказа.
// Цену позиция получит из каталога внутри транзакции резервирования.
type NewOrderLine struct {
	ID        string
	ProductID string
	Qty       int32
}

// NewOrder — заявка на создание заказа. Репозиторий выполняет по ней
// протокол резервирования: проверяет клиента, блокирует и списывает
// остатки, фиксирует цены и считает сумму — всё в одной транзакции.
type NewOrder struct {
	ID              string
	CustomerID      string
	Status          OrderStatus
	Phone           string
	DeliveryAddress string
	Lines           []NewOrderLine
	OrderDate       time.Time
	CreatedAt       time.Time
}

// OrderScope ограничивает видимость заказов одним клиентом.
// Пустой CustomerID означает отсутствие ограничения (привилегированный вызов).
type OrderScope struct {
	CustomerID string
	denyAll    bool
}

// DenyAllScope возвращает scope, в рамках которого не виден ни один заказ.
// Используется для непривилегированных сессий без привязанного клиента:
// отсутствие привязки не должно превращаться в полный доступ.
func DenyAllScope() OrderScope {
	return OrderScope{denyAll: true}
}

// DeniesAll сообщает, что scope не допускает ни одного заказа.
func (s OrderScope) DeniesAll() bool {
	return s.denyAll
}

// Allows сообщает, виден ли заказ в рамках scope.
func (s OrderScope) Allows(o Order) bool {
	if s.denyAll {
		return false
	}
	return s.CustomerID == "" || s.CustomerID == o.CustomerID
}
