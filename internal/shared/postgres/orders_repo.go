package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/shortland/backend/internal/domain/orders"
	"github.com/shortland/backend/internal/ports"
)

// OrdersRepo implements persistence for orders using pgx and SQL.
type OrdersRepo struct{}

// NewOrdersRepo constructs a new OrdersRepo.
func NewOrdersRepo() ports.OrderRepository {
	return &OrdersRepo{}
}

// Create inserts the order header, its items, and the initial 'pending'
// status log. Ids are assigned by the caller; timestamps come back from the DB.
func (r *OrdersRepo) Create(ctx context.Context, order *orders.Order) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// note: total_amount is NUMERIC(10,2) in DB; we send integer cents and divide by 100 in SQL.
	var status string
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status)
		VALUES ($1, $2, $3::numeric/100, 'pending')
		RETURNING created_at, updated_at, status`,
		order.ID,
		order.UserID,
		int64(order.TotalAmount),
	).Scan(&order.CreatedAt, &order.UpdatedAt, &status)
	if err != nil {
		return err
	}
	order.Status = orders.OrderStatus(status)

	// Insert items (unit_price is NUMERIC(10,2); pass cents, divide in SQL).
	for i := range order.Items {
		it := &order.Items[i]
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5::numeric/100)
		`,
			it.ID,
			order.ID,
			it.ProductID,
			it.Quantity,
			int64(it.UnitPrice),
		)
		if err != nil {
			return err
		}
		it.OrderID = order.ID
	}

	// Initial status log ('pending' by the purchaser).
	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, 'pending', $2)
	`,
		order.ID,
		order.UserID,
	)
	return err
}

// GetByID retrieves a hydrated order: header, purchaser summary, items with
// product summaries. Returns orders.ErrOrderNotFound for an unknown id.
func (r *OrdersRepo) GetByID(ctx context.Context, orderID string) (*orders.Order, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	order, err := scanOrderHeader(ctx, tx, `
		SELECT o.id, o.user_id, o.status, (o.total_amount*100)::bigint, o.created_at, o.updated_at,
		       u.id, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, orderID)
	if err != nil {
		return nil, err
	}

	if err := loadItems(ctx, tx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrdersRepo) ListByUser(ctx context.Context, userID string) ([]orders.Order, error) {
	return listOrders(ctx, `
		SELECT o.id, o.user_id, o.status, (o.total_amount*100)::bigint, o.created_at, o.updated_at,
		       u.id, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`, userID)
}

// ListAll returns every order, newest first. Admin surface.
func (r *OrdersRepo) ListAll(ctx context.Context) ([]orders.Order, error) {
	return listOrders(ctx, `
		SELECT o.id, o.user_id, o.status, (o.total_amount*100)::bigint, o.created_at, o.updated_at,
		       u.id, u.name, u.email
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
	`)
}

// UpdateStatusCAS updates the order status using a compare-and-swap approach
// and appends a status log row. applied=false means the stored status no
// longer matched expected.
func (r *OrdersRepo) UpdateStatusCAS(ctx context.Context, orderID string, expected, next orders.OrderStatus, changedBy string) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var applied bool
	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
		RETURNING true
	`, next, orderID, expected).Scan(&applied)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by)
		VALUES ($1, $2, $3)
	`, orderID, next, changedBy)
	return applied, err
}

// --- shared scan helpers ---

func scanOrderHeader(ctx context.Context, tx pgx.Tx, query string, args ...any) (*orders.Order, error) {
	var (
		order orders.Order
		user  orders.UserSummary
	)
	err := tx.QueryRow(ctx, query, args...).Scan(
		&order.ID, &order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt,
		&user.ID, &user.Name, &user.Email,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	order.User = &user
	return &order, nil
}

func listOrders(ctx context.Context, query string, args ...any) ([]orders.Order, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []orders.Order
	for rows.Next() {
		var (
			order orders.Order
			user  orders.UserSummary
		)
		err = rows.Scan(
			&order.ID, &order.UserID, &order.Status, &order.TotalAmount, &order.CreatedAt, &order.UpdatedAt,
			&user.ID, &user.Name, &user.Email,
		)
		if err != nil {
			return nil, err
		}
		order.User = &user
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if err := loadItems(ctx, tx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func loadItems(ctx context.Context, tx pgx.Tx, order *orders.Order) error {
	rows, err := tx.Query(ctx, `
		SELECT i.id, i.product_id, i.quantity, (i.unit_price*100)::bigint,
		       p.id, p.name, (p.price*100)::bigint, p.image_url
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.id
	`, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = nil
	for rows.Next() {
		var (
			item    orders.OrderItem
			product orders.ProductSummary
		)
		err = rows.Scan(
			&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&product.ID, &product.Name, &product.Price, &product.ImageURL,
		)
		if err != nil {
			return err
		}
		item.OrderID = order.ID
		item.Product = &product
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}
