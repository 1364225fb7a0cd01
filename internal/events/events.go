// Package events publishes order lifecycle events to RabbitMQ. Consumers
// (notification workers, analytics) live outside this codebase; the contract
// is the JSON shapes below.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type OrderPlaced struct {
	EventType   string          `json:"eventType"`
	OrderID     string          `json:"orderId"`
	UserID      string          `json:"userId"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Timestamp   time.Time       `json:"timestamp"`
}

type OrderPaid struct {
	EventType        string          `json:"eventType"`
	OrderID          string          `json:"orderId"`
	UserID           string          `json:"userId"`
	GatewayPaymentID string          `json:"gatewayPaymentId"`
	Amount           decimal.Decimal `json:"amount"`
	Timestamp        time.Time       `json:"timestamp"`
}

type OrderShipped struct {
	EventType  string    `json:"eventType"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	TrackingID string    `json:"trackingId"`
	Timestamp  time.Time `json:"timestamp"`
}
