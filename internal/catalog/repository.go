package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID string) error
	GetByID(ctx context.Context, productID string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	Count(ctx context.Context) (int64, error)

	// Lookup is the pricing contract consumed by the cart.
	Lookup(ctx context.Context, productID string) (PriceInfo, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

const productColumns = `id, name, description, price, image_url, category, stock, created_at`

func (r *repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, image_url, category, stock, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.Stock, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repo) Update(ctx context.Context, p *Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products
         SET name = $2, description = $3, price = $4, image_url = $5, category = $6, stock = $7
         WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.Stock,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Stock, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context) ([]Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
}

func (r *repo) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY created_at DESC`, category)
}

func (r *repo) queryProducts(ctx context.Context, query string, args ...any) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.Stock, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return products, nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *repo) Lookup(ctx context.Context, productID string) (PriceInfo, error) {
	var info PriceInfo
	var stock int
	err := r.db.QueryRowContext(ctx,
		`SELECT price, stock FROM products WHERE id = $1`, productID,
	).Scan(&info.UnitPrice, &stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PriceInfo{}, ErrProductNotFound
		}
		return PriceInfo{}, fmt.Errorf("lookup product: %w", err)
	}
	info.Available = stock > 0
	return info, nil
}
