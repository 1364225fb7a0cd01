package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/akseline/store-backend-go/internal/order"
	"github.com/akseline/store-backend-go/internal/payment"
	"github.com/akseline/store-backend-go/internal/shipment"
)

const (
	OrderPlacedQueue  = "order.placed"
	OrderPaidQueue    = "order.paid"
	OrderShippedQueue = "order.shipped"
)

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	for _, q := range []string{OrderPlacedQueue, OrderPaidQueue, OrderShippedQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o *order.Order) error {
	ev := OrderPlaced{
		EventType:   "OrderPlaced",
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}
	return p.publishJSON(ctx, OrderPlacedQueue, body)
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, pay *payment.Payment, userID string) error {
	ev := OrderPaid{
		EventType:        "OrderPaid",
		OrderID:          pay.OrderID,
		UserID:           userID,
		GatewayPaymentID: pay.GatewayPaymentID,
		Amount:           pay.Amount,
		Timestamp:        time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPaid: %w", err)
	}
	return p.publishJSON(ctx, OrderPaidQueue, body)
}

func (p *Publisher) PublishOrderShipped(ctx context.Context, s *shipment.Shipment, userID string) error {
	ev := OrderShipped{
		EventType:  "OrderShipped",
		OrderID:    s.OrderID,
		UserID:     userID,
		TrackingID: s.TrackingID,
		Timestamp:  time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderShipped: %w", err)
	}
	return p.publishJSON(ctx, OrderShippedQueue, body)
}

func (p *Publisher) publishJSON(ctx context.Context, queue string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",    // default exchange
		queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
