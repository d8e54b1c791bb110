package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultSessionTTL = 24 * time.Hour

// RegisterInput — данные регистрации. Для роли user контактные поля
// становятся записью клиента, через которую работает ownership-scope.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     domain.Role
	Name     string
	Phone    string
	Address  string
}

// Service — регистрация, вход и проверка сессий. Пароли хранятся только
// как bcrypt-хэши, токены сессий — непрозрачные uuid во внешнем store.
type Service struct {
	users      domain.UserRepository
	customers  domain.CustomerRepository
	sessions   domain.SessionStore
	logger     *log.Entry
	sessionTTL time.Duration
}

// NewService создаёт сервис аутентификации.
func NewService(
	users domain.UserRepository,
	customers domain.CustomerRepository,
	sessions domain.SessionStore,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "auth")
	}
	return &Service{
		users:      users,
		customers:  customers,
		sessions:   sessions,
		logger:     logger,
		sessionTTL: defaultSessionTTL,
	}
}

// WithSessionTTL задаёт срок жизни выдаваемых токенов.
func (s *Service) WithSessionTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// Register создаёт учётную запись. Для роли user дополнительно заводится
// запись клиента с контактными данными из заявки.
func (s *Service) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		return domain.User{}, domain.ErrUsernameRequired
	}
	if input.Password == "" {
		return domain.User{}, domain.ErrPasswordRequired
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if !input.Role.Valid() {
		return domain.User{}, domain.ErrRoleUnknown
	}

	if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
		return domain.User{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		PasswordHash: string(hash),
		Role:         input.Role,
		Email:        input.Email,
		CreatedAt:    now,
	}

	if input.Role == domain.RoleUser {
		customer := domain.Customer{
			ID:        uuid.NewString(),
			Name:      input.Name,
			Email:     input.Email,
			Phone:     input.Phone,
			Address:   input.Address,
			CreatedAt: now,
		}
		if customer.Name == "" {
			customer.Name = input.Username
		}
		if errs := customer.Validate(); len(errs) > 0 {
			return domain.User{}, errors.Join(errs...)
		}
		if err := s.customers.Create(ctx, customer); err != nil {
			return domain.User{}, err
		}
		user.CustomerID = customer.ID
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"role":    string(user.Role),
	}).Info("user registered")

	return user, nil
}

// Login проверяет пароль и выдаёт сессию с непрозрачным токеном.
// Неизвестный логин и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, username, password string) (domain.Session, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Session{}, domain.ErrInvalidCredentials
		}
		return domain.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	session := domain.Session{
		Token:      uuid.NewString(),
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		CustomerID: user.CustomerID,
		ExpiresAt:  time.Now().UTC().Add(s.sessionTTL),
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("store session: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user logged in")

	return session, nil
}

// Logout отзывает токен. Отзыв неизвестного токена не ошибка.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate возвращает живую сессию по токену или ErrSessionNotFound.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.sessions.Get(ctx, token)
}
