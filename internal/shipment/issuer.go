package shipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/akseline/store-backend-go/internal/order"
	"github.com/akseline/store-backend-go/internal/upstream"
)

var ErrInvalidState = errors.New("order is not in a shippable state")

// Carrier is the external logistics collaborator.
type Carrier interface {
	CreateShipment(ctx context.Context, m Manifest) (string, error)
	Track(ctx context.Context, trackingID string) (string, error)
}

type OrderStore interface {
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) (*order.Order, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, orderID string, status order.Status) error
}

type EventPublisher interface {
	PublishOrderShipped(ctx context.Context, s *Shipment, userID string) error
}

// Issuer hands paid orders to the carrier and advances them to SHIPPED.
type Issuer struct {
	db      *sql.DB
	orders  OrderStore
	repo    Repository
	carrier Carrier
	retry   upstream.Policy
	events  EventPublisher
	logger  *log.Logger
}

func NewIssuer(db *sql.DB, orders OrderStore, repo Repository, carrier Carrier,
	retry upstream.Policy, events EventPublisher, logger *log.Logger) *Issuer {
	return &Issuer{
		db:      db,
		orders:  orders,
		repo:    repo,
		carrier: carrier,
		retry:   retry,
		events:  events,
		logger:  logger,
	}
}

// CreateShipment moves a PAID order to SHIPPED and records its shipment, as
// one unit of work. Any other starting status fails with ErrInvalidState, so
// a second call cannot produce a duplicate shipment. The carrier call is
// keyed by the order id and retried only for transient failures.
func (i *Issuer) CreateShipment(ctx context.Context, orderID string) (*Shipment, error) {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := i.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrNotFound
	}

	if o.Status != order.StatusPaid {
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidState, orderID, o.Status)
	}

	manifest := Manifest{
		OrderID: o.ID,
		Name:    o.Shipping.Name,
		Address: o.Shipping.Address,
		City:    o.Shipping.City,
		Zip:     o.Shipping.Zip,
		Phone:   o.Shipping.Phone,
	}

	var trackingID string
	err = i.retry.Do(ctx, func(ctx context.Context) error {
		id, err := i.carrier.CreateShipment(ctx, manifest)
		if err != nil {
			return err
		}
		trackingID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create carrier shipment for %s: %w", orderID, err)
	}

	s := &Shipment{
		OrderID:    orderID,
		TrackingID: trackingID,
		Status:     StatusReadyForPickup,
	}
	if err := i.repo.CreateTx(ctx, tx, s); err != nil {
		return nil, err
	}

	if err := i.orders.UpdateStatusTx(ctx, tx, orderID, order.StatusShipped); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if i.events != nil {
		if err := i.events.PublishOrderShipped(ctx, s, o.UserID); err != nil {
			i.logger.Printf("publish OrderShipped for order %s: %v", orderID, err)
		}
	}

	i.logger.Printf("order %s shipped (tracking %s)", orderID, trackingID)
	return s, nil
}

// TrackShipment is a pass-through to the carrier's tracking API.
func (i *Issuer) TrackShipment(ctx context.Context, trackingID string) (string, error) {
	var status string
	err := i.retry.Do(ctx, func(ctx context.Context) error {
		s, err := i.carrier.Track(ctx, trackingID)
		if err != nil {
			return err
		}
		status = s
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("track shipment %s: %w", trackingID, err)
	}
	return status, nil
}
