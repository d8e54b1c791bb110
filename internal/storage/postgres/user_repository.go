package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(ctx context.Context, u domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var customerID sql.NullString
	if u.CustomerID != "" {
		customerID = sql.NullString{String: u.CustomerID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, email, customer_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		u.ID, u.Username, u.PasswordHash, string(u.Role), u.Email, customerID,
		u.CreatedAt, nullableTime(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		u          domain.User
		role       string
		customerID sql.NullString
		updated    sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, email, customer_id, created_at, updated_at
		FROM users
		WHERE lower(username) = lower($1)
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.Email, &customerID, &u.CreatedAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}

	u.Role = domain.Role(role)
	if customerID.Valid {
		u.CustomerID = customerID.String
	}
	u.UpdatedAt = fromNullTime(updated)

	return u, nil
}

var _ domain.UserRepository = (*userRepository)(nil)
