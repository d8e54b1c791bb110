package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/storefront/internal/storage/redis"
)

// Dependencies содержит все хранилища приложения. Состав выбирается по
// конфигурации: PostgreSQL + Redis в бою, in-memory для разработки и тестов.
type Dependencies struct {
	Customers   domain.CustomerRepository
	Products    domain.ProductRepository
	Orders      domain.OrderRepository
	Users       domain.UserRepository
	Outbox      domain.OutboxRepository
	Timeline    domain.TimelineRepository
	Idempotency domain.IdempotencyRepository
	Sessions    domain.SessionStore
	Logger      *log.Entry

	closers  []func() error
	checkers map[string]health.Checker
}

// NewDependencies создаёт и инициализирует зависимости по конфигурации.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		Logger:   logger,
		checkers: make(map[string]health.Checker),
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		deps.Customers = postgres.NewCustomerRepository(store)
		deps.Products = postgres.NewProductRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Users = postgres.NewUserRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Timeline = postgres.NewTimelineRepository(store)
		deps.Idempotency = postgres.NewIdempotencyRepository(store)

		deps.closers = append(deps.closers, store.Close)
		deps.checkers["postgres"] = health.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()
			return store.Ping(pingCtx)
		})

		logger.Info("postgres storage initialized")
	} else {
		store := memory.NewStore()
		deps.Customers = memory.NewCustomerRepository(store)
		deps.Products = memory.NewProductRepository(store)
		deps.Orders = memory.NewOrderRepository(store)
		deps.Users = memory.NewUserRepository(store)
		deps.Outbox = memory.NewOutboxRepository()
		deps.Timeline = memory.NewTimelineRepository()
		deps.Idempotency = memory.NewIdempotencyRepository()

		logger.Warn("postgres dsn is empty, using in-memory storage")
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}

		deps.Sessions = redisstore.NewSessionStore(client)
		deps.closers = append(deps.closers, client.Close)
		deps.checkers["redis"] = health.NewSimpleChecker("redis", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()
			return client.Ping(pingCtx).Err()
		})

		logger.Info("redis session store initialized")
	} else {
		deps.Sessions = memory.NewSessionStore()
		logger.Warn("redis addr is empty, using in-memory session store")
	}

	return deps, nil
}

// RegisterHealthCheckers добавляет проверки хранилищ в health handler.
func (d *Dependencies) RegisterHealthCheckers(handler *health.Handler) {
	for name, checker := range d.checkers {
		handler.RegisterChecker(name, checker)
	}
}

// Close закрывает все внешние соединения в обратном порядке.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.WithError(err).Warn("failed to close dependency")
		}
	}
	d.closers = nil
}
