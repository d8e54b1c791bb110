package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Service — CRUD над каталогом товаров. Остаток товара здесь меняется
// только явным редактированием; списания и возвраты при заказах проходят
// через репозиторий заказов.
type Service struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog")
	}
	return &Service{products: products, logger: logger}
}

// Create заводит новый товар.
func (s *Service) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if errs := p.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = time.Time{}

	if err := s.products.Create(ctx, p); err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": p.ID,
		"stock":      p.Stock,
	}).Info("product created")

	return p, nil
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.products.Get(ctx, id)
}

// List возвращает все товары каталога от новых к старым.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// Update применяет частичное обновление. Пустой патч валиден и лишь
// обновляет отметку UpdatedAt. Чтение и запись выполняет репозиторий
// атомарно: сервис не держит прочитанный товар между двумя вызовами,
// иначе патч без поля stock перезаписывал бы конкурентные списания.
func (s *Service) Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return domain.Product{}, err
	}

	p, err := s.products.ApplyPatch(ctx, id, patch, time.Now().UTC())
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", id).Info("product updated")

	return p, nil
}

// Delete удаляет товар. Товар, на который ссылаются позиции заказов,
// удалить нельзя: репозиторий вернёт ErrEntityInUse.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}
