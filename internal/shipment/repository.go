package shipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, s *Shipment) error
	GetByOrderID(ctx context.Context, orderID string) (*Shipment, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*Shipment, error)
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) CreateTx(ctx context.Context, tx *sql.Tx, s *Shipment) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO shipments (id, order_id, tracking_id, status, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.OrderID, s.TrackingID, s.Status, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (r *repo) GetByOrderID(ctx context.Context, orderID string) (*Shipment, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT id, order_id, tracking_id, status, created_at FROM shipments WHERE order_id = $1`, orderID))
}

func (r *repo) GetByTrackingID(ctx context.Context, trackingID string) (*Shipment, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT id, order_id, tracking_id, status, created_at FROM shipments WHERE tracking_id = $1`, trackingID))
}

func (r *repo) scan(row *sql.Row) (*Shipment, error) {
	var s Shipment
	err := row.Scan(&s.ID, &s.OrderID, &s.TrackingID, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select shipment: %w", err)
	}
	return &s, nil
}
