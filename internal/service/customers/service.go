package customers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Service — CRUD над справочником клиентов с контролем уникальности email.
type Service struct {
	customers domain.CustomerRepository
	logger    *log.Entry
}

// NewService создаёт сервис клиентов.
func NewService(customers domain.CustomerRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "customers")
	}
	return &Service{customers: customers, logger: logger}
}

// Create заводит нового клиента; занятый email даёт ErrEmailTaken.
func (s *Service) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if errs := c.Validate(); len(errs) > 0 {
		return domain.Customer{}, errors.Join(errs...)
	}

	taken, err := s.customers.EmailExists(ctx, c.Email, "")
	if err != nil {
		return domain.Customer{}, err
	}
	if taken {
		return domain.Customer{}, domain.ErrEmailTaken
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = time.Time{}

	if err := s.customers.Create(ctx, c); err != nil {
		return domain.Customer{}, err
	}

	s.logger.WithField("customer_id", c.ID).Info("customer created")

	return c, nil
}

// Get возвращает клиента по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Customer, error) {
	return s.customers.Get(ctx, id)
}

// List возвращает всех клиентов от новых к старым.
func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.List(ctx)
}

// Update применяет частичное обновление. Смена email проверяется на
// уникальность, исключая самого клиента.
func (s *Service) Update(ctx context.Context, id string, patch domain.CustomerPatch) (domain.Customer, error) {
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	if patch.Email != nil && *patch.Email != "" {
		taken, err := s.customers.EmailExists(ctx, *patch.Email, id)
		if err != nil {
			return domain.Customer{}, err
		}
		if taken {
			return domain.Customer{}, domain.ErrEmailTaken
		}
	}

	patch.Apply(&c, time.Now().UTC())

	if err := s.customers.Update(ctx, c); err != nil {
		return domain.Customer{}, err
	}

	s.logger.WithField("customer_id", id).Info("customer updated")

	return c, nil
}

// Delete удаляет клиента. Клиента с заказами удалить нельзя:
// репозиторий вернёт ErrEntityInUse.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("customer_id", id).Info("customer deleted")
	return nil
}
