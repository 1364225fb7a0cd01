package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetCart(ctx context.Context, userID string) (*Cart, error)
	ClearCart(ctx context.Context, userID string) error

	// Mutations run inside a caller-owned transaction that holds the cart
	// row lock, so concurrent writes for one owner serialize.
	GetOrCreateCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*Cart, error)
	SaveCartTx(ctx context.Context, tx *sql.Tx, c *Cart) error

	// Transactional variants used by the order workflow so that the cart
	// snapshot and the cart clear share the order's unit of work.
	GetCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*Cart, error)
	ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) GetCart(ctx context.Context, userID string) (*Cart, error) {
	const cartQuery = `SELECT id, user_id, total, updated_at FROM carts WHERE user_id = $1`

	var c Cart
	err := r.db.QueryRowContext(ctx, cartQuery, userID).Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// caller creates the cart lazily
			return nil, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	lines, err := r.queryLines(ctx, r.db.QueryContext, c.ID)
	if err != nil {
		return nil, err
	}
	c.Lines = lines

	return &c, nil
}

func (r *repo) GetCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*Cart, error) {
	const cartQuery = `SELECT id, user_id, total, updated_at FROM carts WHERE user_id = $1 FOR UPDATE`

	var c Cart
	err := tx.QueryRowContext(ctx, cartQuery, userID).Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select cart for update: %w", err)
	}

	lines, err := r.queryLines(ctx, tx.QueryContext, c.ID)
	if err != nil {
		return nil, err
	}
	c.Lines = lines

	return &c, nil
}

type queryFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (r *repo) queryLines(ctx context.Context, query queryFunc, cartID string) ([]Line, error) {
	rows, err := query(ctx,
		`SELECT product_id, quantity, unit_price FROM cart_items WHERE cart_id = $1 ORDER BY product_id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("select cart_items: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var ln Line
		if err := rows.Scan(&ln.ProductID, &ln.Quantity, &ln.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan cart_item: %w", err)
		}
		lines = append(lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return lines, nil
}

// GetOrCreateCartForUpdate upserts the owner's cart row and returns it with
// its lines. The ON CONFLICT update takes the row lock whether the cart is
// new or existing, so a second writer for the same owner blocks here until
// the first commits.
func (r *repo) GetOrCreateCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*Cart, error) {
	const lockSQL = `
INSERT INTO carts (id, user_id, total, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
RETURNING id, user_id, total, updated_at
`
	var c Cart
	err := tx.QueryRowContext(ctx, lockSQL, uuid.NewString(), userID, decimal.Zero).
		Scan(&c.ID, &c.UserID, &c.Total, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	lines, err := r.queryLines(ctx, tx.QueryContext, c.ID)
	if err != nil {
		return nil, err
	}
	c.Lines = lines

	return &c, nil
}

// SaveCartTx rewrites the cart's lines and stored total. The cart row must
// already be locked in tx via GetOrCreateCartForUpdate.
func (r *repo) SaveCartTx(ctx context.Context, tx *sql.Tx, c *Cart) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE carts SET total = $2, updated_at = NOW() WHERE id = $1`, c.ID, c.Total); err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("delete cart_items: %w", err)
	}

	if len(c.Lines) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			return fmt.Errorf("prepare cart_items insert: %w", err)
		}
		defer stmt.Close()

		for _, ln := range c.Lines {
			if _, err := stmt.ExecContext(ctx, uuid.NewString(), c.ID, ln.ProductID, ln.Quantity, ln.UnitPrice); err != nil {
				return fmt.Errorf("insert cart_item: %w", err)
			}
		}
	}

	return nil
}

// ClearCart empties the lines and zeroes the total. The cart row itself is
// kept: carts are created lazily and never deleted.
func (r *repo) ClearCart(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var cartID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("select cart: %w", err)
	}

	if err := clearLines(ctx, tx, cartID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	return clearLines(ctx, tx, cartID)
}

func clearLines(ctx context.Context, tx *sql.Tx, cartID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart_items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE carts SET total = $2, updated_at = NOW() WHERE id = $1`, cartID, decimal.Zero); err != nil {
		return fmt.Errorf("reset cart total: %w", err)
	}
	return nil
}
