package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create выполняет протокол резервирования в одной транзакции:
// клиент проверяется, каждая позиция блокирует строку товара
// (SELECT ... FOR UPDATE), остаток проверяется и списывается, цена
// фиксируется на момент оформления. Любая ошибка откатывает транзакцию
// целиком — частичных списаний снаружи не видно.
func (r *orderRepository) Create(ctx context.Context, draft domain.NewOrder) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var customerName string
	err = tx.QueryRowContext(ctx, `SELECT name FROM customers WHERE id = $1`, draft.CustomerID).
		Scan(&customerName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrCustomerNotFound
			return domain.Order{}, err
		}
		err = fmt.Errorf("resolve customer: %w", err)
		return domain.Order{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, customer_id, order_date, status, amount_minor,
			phone, delivery_address, created_at, updated_at
		) VALUES ($1,$2,$3,$4,0,$5,$6,$7,NULL)
	`,
		draft.ID, draft.CustomerID, draft.OrderDate, string(draft.Status),
		draft.Phone, draft.DeliveryAddress, draft.CreatedAt,
	)
	if err != nil {
		err = fmt.Errorf("insert order: %w", err)
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:              draft.ID,
		CustomerID:      draft.CustomerID,
		CustomerName:    customerName,
		Status:          draft.Status,
		OrderDate:       draft.OrderDate,
		Phone:           draft.Phone,
		DeliveryAddress: draft.DeliveryAddress,
		CreatedAt:       draft.CreatedAt,
		Lines:           make([]domain.OrderLine, 0, len(draft.Lines)),
	}

	var total int64
	for _, req := range draft.Lines {
		var (
			productName string
			priceMinor  int64
			stock       int32
		)
		// Блокировка строки товара сериализует конкурентные резервы,
		// check-and-decrement становится одним атомарным шагом.
		err = tx.QueryRowContext(ctx, `
			SELECT name, price_minor, stock
			FROM products
			WHERE id = $1
			FOR UPDATE
		`, req.ProductID).Scan(&productName, &priceMinor, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = domain.ErrProductNotFound
				return domain.Order{}, err
			}
			err = fmt.Errorf("lock product %s: %w", req.ProductID, err)
			return domain.Order{}, err
		}

		if stock < req.Qty {
			err = &domain.InsufficientStockError{
				ProductID:   req.ProductID,
				ProductName: productName,
				Requested:   req.Qty,
				Available:   stock,
			}
			return domain.Order{}, err
		}

		if _, err = tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2 WHERE id = $1
		`, req.ProductID, req.Qty); err != nil {
			err = fmt.Errorf("decrement stock for %s: %w", req.ProductID, err)
			return domain.Order{}, err
		}

		subtotal := int64(req.Qty) * priceMinor
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, qty, price_minor, subtotal_minor, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`,
			req.ID, draft.ID, req.ProductID, req.Qty, priceMinor, subtotal, draft.CreatedAt,
		); err != nil {
			err = fmt.Errorf("insert order line: %w", err)
			return domain.Order{}, err
		}

		order.Lines = append(order.Lines, domain.OrderLine{
			ID:            req.ID,
			OrderID:       draft.ID,
			ProductID:     req.ProductID,
			ProductName:   productName,
			Qty:           req.Qty,
			PriceMinor:    priceMinor,
			SubtotalMinor: subtotal,
			CreatedAt:     draft.CreatedAt,
		})
		total += subtotal
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE orders SET amount_minor = $1 WHERE id = $2
	`, total, draft.ID); err != nil {
		err = fmt.Errorf("write order total: %w", err)
		return domain.Order{}, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit create order: %w", err)
		return domain.Order{}, err
	}

	order.AmountMinor = total
	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order, err := r.scanOrder(ctx, r.db.QueryRowContext(ctx, `
		SELECT o.id, o.customer_id, c.name, o.order_date, o.status, o.amount_minor,
		       o.phone, o.delivery_address, o.created_at, o.updated_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	lines, err := r.loadLines(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Lines = lines

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, scope domain.OrderScope) ([]domain.Order, error) {
	if scope.DeniesAll() {
		return []domain.Order{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT o.id, o.customer_id, c.name, o.order_date, o.status, o.amount_minor,
		       o.phone, o.delivery_address, o.created_at, o.updated_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
	`
	var (
		rows *sql.Rows
		err  error
	)
	if scope.CustomerID != "" {
		rows, err = r.db.QueryContext(ctx, query+`
			WHERE o.customer_id = $1
			ORDER BY o.order_date DESC, o.id DESC
		`, scope.CustomerID)
	} else {
		rows, err = r.db.QueryContext(ctx, query+`
			ORDER BY o.order_date DESC, o.id DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := r.scanOrder(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		lines, err := r.loadLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, at time.Time) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3
	`, string(status), at, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return r.Get(ctx, id)
}

// Delete возвращает остатки по позициям (компенсация резервирования)
// и удаляет заказ вместе с позициями в одной транзакции.
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrOrderNotFound
			return err
		}
		err = fmt.Errorf("lock order: %w", err)
		return err
	}

	type restock struct {
		productID string
		qty       int32
	}
	var restocks []restock

	rows, err := tx.QueryContext(ctx, `
		SELECT product_id, qty FROM order_lines WHERE order_id = $1
	`, id)
	if err != nil {
		err = fmt.Errorf("load order lines: %w", err)
		return err
	}
	for rows.Next() {
		var rs restock
		if err = rows.Scan(&rs.productID, &rs.qty); err != nil {
			rows.Close()
			err = fmt.Errorf("scan order line: %w", err)
			return err
		}
		restocks = append(restocks, rs)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		err = fmt.Errorf("iterate order lines: %w", err)
		return err
	}
	rows.Close()

	for _, rs := range restocks {
		if _, err = tx.ExecContext(ctx, `
			UPDATE products SET stock = stock + $2 WHERE id = $1
		`, rs.productID, rs.qty); err != nil {
			err = fmt.Errorf("restore stock for %s: %w", rs.productID, err)
			return err
		}
	}

	// Позиции удаляет каскад по order_id.
	if _, err = tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		err = fmt.Errorf("delete order: %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit delete order: %w", err)
		return err
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *orderRepository) scanOrder(_ context.Context, row rowScanner) (domain.Order, error) {
	var (
		order   domain.Order
		status  string
		updated sql.NullTime
	)
	if err := row.Scan(
		&order.ID, &order.CustomerID, &order.CustomerName, &order.OrderDate,
		&status, &order.AmountMinor, &order.Phone, &order.DeliveryAddress,
		&order.CreatedAt, &updated,
	); err != nil {
		return domain.Order{}, err
	}
	order.Status = domain.OrderStatus(status)
	order.UpdatedAt = fromNullTime(updated)
	return order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.order_id, l.product_id, p.name, l.qty, l.price_minor, l.subtotal_minor, l.created_at
		FROM order_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.order_id = $1
		ORDER BY l.created_at ASC, l.id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.ProductName,
			&line.Qty, &line.PriceMinor, &line.SubtotalMinor, &line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}

	return lines, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
