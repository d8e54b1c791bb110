package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newAuthFixture() (*Service, domain.CustomerRepository) {
	store := memory.NewStore()
	customers := memory.NewCustomerRepository(store)
	svc := NewService(memory.NewUserRepository(store), customers, memory.NewSessionStore(), nil)
	return svc, customers
}

func TestRegister_UserRoleCreatesCustomer(t *testing.T) {
	svc, customers := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Password: "secret",
		Email:    "alice@example.com",
		Phone:    "+100",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if user.Role != domain.RoleUser {
		t.Errorf("role must default to user, got %q", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret" {
		t.Error("password must be stored hashed")
	}
	if user.CustomerID == "" {
		t.Fatal("user role must get a linked customer")
	}

	customer, err := customers.Get(ctx, user.CustomerID)
	if err != nil {
		t.Fatalf("linked customer: %v", err)
	}
	if customer.Name != "alice" {
		t.Errorf("customer name must fall back to username, got %q", customer.Name)
	}
	if customer.Email != "alice@example.com" || customer.Phone != "+100" {
		t.Errorf("contact fields not carried over: %+v", customer)
	}
}

func TestRegister_AdminHasNoCustomer(t *testing.T) {
	svc, _ := newAuthFixture()

	admin, err := svc.Register(context.Background(), RegisterInput{
		Username: "root",
		Password: "secret",
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if admin.CustomerID != "" {
		t.Errorf("admin must not get a customer, got %q", admin.CustomerID)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Password: "x"}); !errors.Is(err, domain.ErrUsernameRequired) {
		t.Errorf("expected ErrUsernameRequired, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice"}); !errors.Is(err, domain.ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "x", Role: "boss"}); !errors.Is(err, domain.ErrRoleUnknown) {
		t.Errorf("expected ErrRoleUnknown, got %v", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "x", Email: "alice@example.com", Phone: "+1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "y", Email: "other@example.com", Phone: "+2"}); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestLoginLogoutAuthenticate(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Password: "secret", Email: "alice@example.com", Phone: "+1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "secret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}

	session, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" {
		t.Fatal("session must carry a token")
	}
	if session.UserID != user.ID || session.CustomerID != user.CustomerID {
		t.Errorf("session identity mismatch: %+v", session)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Error("session must expire in the future")
	}

	got, err := svc.Authenticate(ctx, session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("authenticate returned wrong session: %+v", got)
	}

	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("empty token: expected ErrSessionNotFound, got %v", err)
	}

	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authenticate(ctx, session.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("token must be dead after logout, got %v", err)
	}
	if err := svc.Logout(ctx, "unknown"); err != nil {
		t.Errorf("logout of unknown token must not fail: %v", err)
	}
}
