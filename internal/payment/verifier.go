package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/akseline/store-backend-go/internal/order"
	"github.com/akseline/store-backend-go/internal/upstream"
)

var (
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrAlreadyPaid       = errors.New("order already has a verified payment")
)

// Gateway is the external payment collaborator.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string) (string, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

type OrderStore interface {
	GetForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) (*order.Order, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, orderID string, status order.Status) error
	SetGatewayOrderIDTx(ctx context.Context, tx *sql.Tx, orderID, gatewayOrderID string) error
}

type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, p *Payment, userID string) error
}

const currency = "INR"

// Verifier creates gateway payment intents and confirms completed payments.
type Verifier struct {
	db       *sql.DB
	orders   OrderStore
	payments Repository
	gateway  Gateway
	retry    upstream.Policy
	events   EventPublisher
	logger   *log.Logger
}

func NewVerifier(db *sql.DB, orders OrderStore, payments Repository, gateway Gateway,
	retry upstream.Policy, events EventPublisher, logger *log.Logger) *Verifier {
	return &Verifier{
		db:       db,
		orders:   orders,
		payments: payments,
		gateway:  gateway,
		retry:    retry,
		events:   events,
		logger:   logger,
	}
}

// CreateIntent registers the order with the gateway and persists the
// returned gateway order id. An order that already carries a gateway order
// id gets the recorded intent back; the gateway is never asked twice for the
// same order. Transient gateway failures are retried with backoff before the
// local state is touched, so an aborted attempt leaves nothing behind.
func (v *Verifier) CreateIntent(ctx context.Context, orderID string) (*Intent, error) {
	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := v.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrNotFound
	}

	if o.GatewayOrderID != "" {
		return &Intent{
			OrderID:        o.ID,
			GatewayOrderID: o.GatewayOrderID,
			Amount:         o.TotalAmount,
			Currency:       currency,
		}, nil
	}

	// Gateway wants the amount in minor units (paise), truncated.
	amountMinor := o.TotalAmount.Shift(2).IntPart()
	receipt := "txn_" + o.ID

	var gatewayOrderID string
	err = v.retry.Do(ctx, func(ctx context.Context) error {
		id, err := v.gateway.CreateOrder(ctx, amountMinor, currency, receipt)
		if err != nil {
			return err
		}
		gatewayOrderID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order for %s: %w", orderID, err)
	}

	if err := v.orders.SetGatewayOrderIDTx(ctx, tx, orderID, gatewayOrderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &Intent{
		OrderID:        o.ID,
		GatewayOrderID: gatewayOrderID,
		Amount:         o.TotalAmount,
		Currency:       currency,
	}, nil
}

// Verify checks the gateway's completion signature and, on a match, moves
// the order PENDING -> PAID and records exactly one successful payment.
// Reposting the same verified payload confirms the existing state instead of
// inserting again. A mismatched signature mutates nothing and is never
// retried.
func (v *Verifier) Verify(ctx context.Context, orderID, gatewayOrderID, gatewayPaymentID, signature string) (*Payment, error) {
	if !v.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		v.logger.Printf("signature mismatch for order %s (gateway order %s)", orderID, gatewayOrderID)
		return nil, ErrSignatureMismatch
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := v.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, order.ErrNotFound
	}

	if o.GatewayOrderID == "" || o.GatewayOrderID != gatewayOrderID {
		v.logger.Printf("gateway order id mismatch for order %s: got %s", orderID, gatewayOrderID)
		return nil, ErrSignatureMismatch
	}

	if o.Status == order.StatusPaid {
		existing, err := v.payments.GetByOrderIDTx(ctx, tx, orderID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.GatewayPaymentID == gatewayPaymentID {
			// already verified, nothing to do
			return existing, nil
		}
		return nil, ErrAlreadyPaid
	}

	if !o.Status.CanTransitionTo(order.StatusPaid) {
		return nil, fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, o.Status, order.StatusPaid)
	}

	if err := v.orders.UpdateStatusTx(ctx, tx, orderID, order.StatusPaid); err != nil {
		return nil, err
	}

	p := &Payment{
		OrderID:          orderID,
		GatewayPaymentID: gatewayPaymentID,
		GatewaySignature: signature,
		Amount:           o.TotalAmount,
		Status:           StatusSuccess,
	}
	if err := v.payments.CreateTx(ctx, tx, p); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if v.events != nil {
		if err := v.events.PublishOrderPaid(ctx, p, o.UserID); err != nil {
			v.logger.Printf("publish OrderPaid for order %s: %v", orderID, err)
		}
	}

	v.logger.Printf("order %s paid (payment %s)", orderID, p.ID)
	return p, nil
}
