package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(ctx context.Context, p domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_minor, description, image_url, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		p.ID, p.Name, p.PriceMinor, p.Description, p.ImageURL, p.Stock,
		p.CreatedAt, nullableTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		p       domain.Product
		updated sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price_minor, description, image_url, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.ImageURL, &p.Stock, &p.CreatedAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	p.UpdatedAt = fromNullTime(updated)

	return p, nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_minor, description, image_url, stock, created_at, updated_at
		FROM products
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var (
			p       domain.Product
			updated sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.ImageURL, &p.Stock, &p.CreatedAt, &updated); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		p.UpdatedAt = fromNullTime(updated)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// ApplyPatch применяет частичное обновление в одной транзакции. Строка
// товара блокируется так же, как при резервировании: конкурентное
// списание остатка не может быть перезаписано устаревшим чтением.
func (r *productRepository) ApplyPatch(ctx context.Context, id string, patch domain.ProductPatch, now time.Time) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Product{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		p       domain.Product
		updated sql.NullTime
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, price_minor, description, image_url, stock, created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.ImageURL, &p.Stock, &p.CreatedAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrProductNotFound
			return domain.Product{}, err
		}
		err = fmt.Errorf("lock product: %w", err)
		return domain.Product{}, err
	}
	p.UpdatedAt = fromNullTime(updated)

	patch.Apply(&p, now)

	if _, err = tx.ExecContext(ctx, `
		UPDATE products
		SET name = $1, price_minor = $2, description = $3, image_url = $4, stock = $5, updated_at = $6
		WHERE id = $7
	`,
		p.Name, p.PriceMinor, p.Description, p.ImageURL, p.Stock, nullableTime(p.UpdatedAt), p.ID,
	); err != nil {
		err = fmt.Errorf("update product: %w", err)
		return domain.Product{}, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit product patch: %w", err)
		return domain.Product{}, err
	}

	return p, nil
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		// FK RESTRICT со стороны позиций заказов: товар ещё используется.
		if isForeignKeyViolation(err) {
			return domain.ErrEntityInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
