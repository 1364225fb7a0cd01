package wishlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*Wishlist, error)
	AddProduct(ctx context.Context, userID, productID string) (*Wishlist, error)
	RemoveProduct(ctx context.Context, userID, productID string) (*Wishlist, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

// Get returns the user's wishlist, empty if they never saved anything.
func (r *repo) Get(ctx context.Context, userID string) (*Wishlist, error) {
	w := &Wishlist{UserID: userID, ProductIDs: []string{}}

	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM wishlists WHERE user_id = $1`, userID).Scan(&w.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return w, nil
		}
		return nil, fmt.Errorf("query wishlist: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id FROM wishlist_items WHERE wishlist_id = $1 ORDER BY product_id`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("query wishlist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		w.ProductIDs = append(w.ProductIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return w, nil
}

// AddProduct saves a product for the user, creating the wishlist row on
// first use. Saving a product twice is a no-op.
func (r *repo) AddProduct(ctx context.Context, userID, productID string) (*Wishlist, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var wishlistID string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO wishlists (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`,
		uuid.NewString(), userID).Scan(&wishlistID)
	if err != nil {
		return nil, fmt.Errorf("upsert wishlist: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO wishlist_items (wishlist_id, product_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		wishlistID, productID)
	if err != nil {
		return nil, fmt.Errorf("insert wishlist item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return r.Get(ctx, userID)
}

// RemoveProduct drops a product from the user's wishlist. Removing a product
// that was never saved is a no-op.
func (r *repo) RemoveProduct(ctx context.Context, userID, productID string) (*Wishlist, error) {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM wishlist_items
		WHERE product_id = $2
		  AND wishlist_id = (SELECT id FROM wishlists WHERE user_id = $1)`,
		userID, productID)
	if err != nil {
		return nil, fmt.Errorf("delete wishlist item: %w", err)
	}
	return r.Get(ctx, userID)
}
