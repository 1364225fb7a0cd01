package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, p *Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	GetByOrderIDTx(ctx context.Context, tx *sql.Tx, orderID string) (*Payment, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) CreateTx(ctx context.Context, tx *sql.Tx, p *Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, gateway_payment_id, gateway_signature, amount, status, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrderID, p.GatewayPaymentID, p.GatewaySignature, p.Amount, p.Status, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

const paymentQuery = `SELECT id, order_id, gateway_payment_id, gateway_signature, amount, status, created_at
         FROM payments WHERE order_id = $1`

func (r *repo) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx, paymentQuery, orderID))
}

func (r *repo) GetByOrderIDTx(ctx context.Context, tx *sql.Tx, orderID string) (*Payment, error) {
	return scanPayment(tx.QueryRowContext(ctx, paymentQuery, orderID))
}

func scanPayment(row *sql.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.GatewayPaymentID, &p.GatewaySignature, &p.Amount, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}
