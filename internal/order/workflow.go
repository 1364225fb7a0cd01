package order

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akseline/store-backend-go/internal/cart"
)

// CartStore is the slice of the cart aggregate the workflow needs: a locked
// read and a clear that join the order's transaction. Implemented by
// cart.Service.
type CartStore interface {
	GetCartForUpdate(ctx context.Context, tx *sql.Tx, userID string) (*cart.Cart, error)
	ClearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error
	InvalidateCache(ctx context.Context, userID string)
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o *Order) error
}

// Workflow freezes carts into orders and drives the order state machine.
type Workflow struct {
	db     *sql.DB
	repo   Repository
	carts  CartStore
	events EventPublisher
	logger *log.Logger
}

func NewWorkflow(db *sql.DB, repo Repository, carts CartStore, events EventPublisher, logger *log.Logger) *Workflow {
	return &Workflow{db: db, repo: repo, carts: carts, events: events, logger: logger}
}

// PlaceOrder snapshots the owner's cart into an immutable PENDING order and
// empties the cart. Creation and clearing share one transaction: if either
// fails, the cart is left intact and no order exists.
func (w *Workflow) PlaceOrder(ctx context.Context, userID string, shipping ShippingInfo) (*Order, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	c, err := w.carts.GetCartForUpdate(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c == nil || len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		UserID:    userID,
		Status:    StatusPending,
		Shipping:  shipping,
		CreatedAt: time.Now().UTC(),
	}

	total := decimal.Zero
	for _, ln := range c.Lines {
		o.Items = append(o.Items, Item{
			ProductID: ln.ProductID,
			Quantity:  ln.Quantity,
			UnitPrice: ln.UnitPrice,
		})
		total = total.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	o.TotalAmount = total

	if err := w.repo.CreateTx(ctx, tx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := w.carts.ClearCartTx(ctx, tx, c.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	w.carts.InvalidateCache(ctx, userID)

	if w.events != nil {
		if err := w.events.PublishOrderPlaced(ctx, o); err != nil {
			w.logger.Printf("publish OrderPlaced for order %s: %v", o.ID, err)
		}
	}

	w.logger.Printf("placed order %s for user %s (total %s)", o.ID, userID, o.TotalAmount)
	return o, nil
}

// UpdateStatus moves the order along the transition table. Any edge not in
// the table, including everything out of a terminal state, fails with
// ErrInvalidTransition and changes nothing.
func (w *Workflow) UpdateStatus(ctx context.Context, orderID string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	o, err := w.repo.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}

	if err := w.repo.UpdateStatusTx(ctx, tx, orderID, next); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	o.Status = next
	return o, nil
}

func (w *Workflow) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	o, err := w.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

func (w *Workflow) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	return w.repo.ListByUser(ctx, userID)
}

func (w *Workflow) ListAllOrders(ctx context.Context) ([]Order, error) {
	return w.repo.ListAll(ctx)
}
