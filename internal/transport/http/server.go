package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/auth"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/customers"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
)

const requestTimeout = 15 * time.Second

// Server связывает REST API витрины с сервисным слоем.
type Server struct {
	auth        *auth.Service
	customers   *customers.Service
	catalog     *catalog.Service
	orders      *orders.Service
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
	router      *chi.Mux
}

// NewServer собирает роутер со всеми эндпоинтами API.
// idempotency может быть nil — тогда Idempotency-Key игнорируется.
func NewServer(
	authSvc *auth.Service,
	customersSvc *customers.Service,
	catalogSvc *catalog.Service,
	ordersSvc *orders.Service,
	idempotency domain.IdempotencyRepository,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}

	s := &Server{
		auth:        authSvc,
		customers:   customersSvc,
		catalog:     catalogSvc,
		orders:      ordersSvc,
		idempotency: idempotency,
		logger:      logger,
	}
	s.router = s.buildRouter()
	return s
}

// Handler возвращает корневой http.Handler сервера.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(s.requireAuth).Post("/logout", s.handleLogout)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Use(s.requireAuth, s.requireAdmin)
			r.Get("/", s.handleListCustomers)
			r.Post("/", s.handleCreateCustomer)
			r.Get("/{id}", s.handleGetCustomer)
			r.Put("/{id}", s.handleUpdateCustomer)
			r.Delete("/{id}", s.handleDeleteCustomer)
		})

		r.Route("/products", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListProducts)
			r.Get("/{id}", s.handleGetProduct)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/", s.handleCreateProduct)
				r.Put("/{id}", s.handleUpdateProduct)
				r.Delete("/{id}", s.handleDeleteProduct)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateOrder)
			r.Get("/", s.handleListOrders)
			r.Get("/{id}", s.handleGetOrder)
			r.Put("/{id}/status", s.handleUpdateOrderStatus)
			r.Delete("/{id}", s.handleDeleteOrder)
			r.Get("/{id}/timeline", s.handleOrderTimeline)
		})
	})

	return r
}
