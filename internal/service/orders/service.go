package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Service — операции над заказами поверх протокола резервирования.
// Репозиторий отвечает за атомарность; сервис добавляет валидацию,
// ownership-scope, timeline и публикацию событий через outbox.
type Service struct {
	orders   domain.OrderRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &Service{
		orders:   orders,
		timeline: timeline,
		outbox:   outbox,
		logger:   logger,
		metrics:  metrics.NewOrderMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) *Service {
	s := NewService(orders, timeline, outbox, logger)
	s.metrics = nil
	return s
}

// Create оформляет заказ: валидирует заявку, выполняет резервирование
// через репозиторий и фиксирует событие создания. Либо заказ создан и все
// остатки списаны, либо ничего не изменилось.
func (s *Service) Create(ctx context.Context, draft domain.NewOrder) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	if err := validateDraft(&draft); err != nil {
		s.recordRejected("validation")
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.Status == "" {
		draft.Status = domain.OrderStatusPending
	}
	if draft.OrderDate.IsZero() {
		draft.OrderDate = now
	}
	draft.CreatedAt = now
	for i := range draft.Lines {
		if draft.Lines[i].ID == "" {
			draft.Lines[i].ID = uuid.NewString()
		}
	}

	order, err := s.orders.Create(ctx, draft)
	if err != nil {
		s.recordRejected(rejectReason(err))
		return domain.Order{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"lines":        len(order.Lines),
		"amount_minor": order.AmountMinor,
	}).Info("order created")

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}

	s.appendTimeline(order.ID, "order.created", "")
	s.enqueueEvent(kafka.EventTypeOrderCreated, order)

	return order, nil
}

// Get возвращает заказ в рамках scope. Чужой заказ неотличим от
// несуществующего: в обоих случаях ErrOrderNotFound.
func (s *Service) Get(ctx context.Context, id string, scope domain.OrderScope) (domain.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !scope.Allows(order) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

// List возвращает заказы, видимые в рамках scope, от новых к старым.
func (s *Service) List(ctx context.Context, scope domain.OrderScope) ([]domain.Order, error) {
	return s.orders.List(ctx, scope)
}

// UpdateStatus меняет статус заказа. Остальные поля не меняются:
// состав и сумма заказа после создания неизменяемы.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, scope domain.OrderScope) (domain.Order, error) {
	if status == "" {
		return domain.Order{}, domain.ErrStatusRequired
	}
	if !status.Valid() {
		return domain.Order{}, domain.ErrStatusUnknown
	}

	current, err := s.Get(ctx, id, scope)
	if err != nil {
		return domain.Order{}, err
	}

	updated, err := s.orders.UpdateStatus(ctx, id, status, time.Now().UTC())
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.WithFields(log.Fields{
		"order_id": id,
		"from":     string(current.Status),
		"to":       string(status),
	}).Info("order status updated")

	if s.metrics != nil {
		s.metrics.RecordStatusTransition()
	}

	s.appendTimeline(id, "order.status_changed", fmt.Sprintf("%s -> %s", current.Status, status))
	s.enqueueEvent(kafka.EventTypeOrderStatusChanged, updated)

	return updated, nil
}

// Delete удаляет заказ с компенсацией: остатки всех позиций возвращаются
// на склад в той же транзакции, что и удаление.
func (s *Service) Delete(ctx context.Context, id string, scope domain.OrderScope) error {
	order, err := s.Get(ctx, id, scope)
	if err != nil {
		return err
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"order_id": id,
		"lines":    len(order.Lines),
	}).Info("order deleted, stock restored")

	if s.metrics != nil {
		s.metrics.RecordOrderDeleted()
	}

	s.appendTimeline(id, "order.deleted", "")
	s.enqueueEvent(kafka.EventTypeOrderDeleted, order)

	return nil
}

// Timeline возвращает историю событий заказа в рамках scope.
func (s *Service) Timeline(ctx context.Context, id string, scope domain.OrderScope) ([]domain.TimelineEvent, error) {
	if _, err := s.Get(ctx, id, scope); err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return nil, nil
	}
	return s.timeline.List(id)
}

func validateDraft(draft *domain.NewOrder) error {
	if draft.CustomerID == "" {
		return domain.ErrCustomerRequired
	}
	if draft.Status != "" && !draft.Status.Valid() {
		return domain.ErrStatusUnknown
	}
	if len(draft.Lines) == 0 {
		return domain.ErrLinesRequired
	}
	for _, line := range draft.Lines {
		if line.ProductID == "" {
			return domain.ErrLineProductRequired
		}
		if line.Qty <= 0 {
			return domain.ErrLineQtyInvalid
		}
	}
	return nil
}

func rejectReason(err error) string {
	if _, ok := domain.AsInsufficientStock(err); ok {
		return "insufficient_stock"
	}
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func (s *Service) recordRejected(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(reason)
	}
}

// appendTimeline пишет событие в историю заказа. Ошибка записи не
// откатывает уже закоммиченную операцию, только логируется.
func (s *Service) appendTimeline(orderID, eventType, reason string) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: time.Now().UTC(),
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to append timeline event")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

// enqueueEvent кладёт событие заказа в transactional outbox для
// последующей публикации воркером.
func (s *Service) enqueueEvent(eventType kafka.EventType, order domain.Order) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, order.CustomerID, string(order.Status), order.AmountMinor)
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order event")
		return
	}

	_, err = s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue outbox event")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}
