package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) (*Order, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, orderID string, status Status) error
	SetGatewayOrderIDTx(ctx context.Context, tx *sql.Tx, orderID, gatewayOrderID string) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)

	// Read-only aggregates for the admin dashboard.
	Count(ctx context.Context) (int64, error)
	CountCustomers(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const orderColumns = `id, user_id, status, total_amount,
         shipping_name, shipping_address, shipping_city, shipping_zip, shipping_phone,
         COALESCE(gateway_order_id, ''), created_at`

func (r *repo) CreateTx(ctx context.Context, tx *sql.Tx, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total_amount,
             shipping_name, shipping_address, shipping_city, shipping_zip, shipping_phone, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.UserID, o.Status, o.TotalAmount,
		o.Shipping.Name, o.Shipping.Address, o.Shipping.City, o.Shipping.Zip, o.Shipping.Phone,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
             VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), o.ID, it.ProductID, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := r.scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil || o == nil {
		return o, err
	}

	items, err := r.queryItems(ctx, r.db.QueryContext, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *repo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) (*Order, error) {
	o, err := r.scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID))
	if err != nil || o == nil {
		return o, err
	}

	items, err := r.queryItems(ctx, tx.QueryContext, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *repo) scanOrder(row *sql.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount,
		&o.Shipping.Name, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.Zip, &o.Shipping.Phone,
		&o.GatewayOrderID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	return &o, nil
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (r *repo) queryItems(ctx context.Context, query queryFunc, orderID string) ([]Item, error) {
	rows, err := query(ctx,
		`SELECT product_id, quantity, unit_price FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r *repo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, orderID string, status Status) error {
	res, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) SetGatewayOrderIDTx(ctx context.Context, tx *sql.Tx, orderID, gatewayOrderID string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET gateway_order_id = $2 WHERE id = $1`, orderID, gatewayOrderID)
	if err != nil {
		return fmt.Errorf("set gateway order id: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *repo) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount,
			&o.Shipping.Name, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.Zip, &o.Shipping.Phone,
			&o.GatewayOrderID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.queryItems(ctx, r.db.QueryContext, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *repo) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

func (r *repo) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders`).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}
