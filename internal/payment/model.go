package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Payment records a verified gateway payment. One per order, created only
// when the signature checks out.
type Payment struct {
	ID               string          `json:"paymentId"`
	OrderID          string          `json:"orderId"`
	GatewayPaymentID string          `json:"gatewayPaymentId"`
	GatewaySignature string          `json:"-"`
	Amount           decimal.Decimal `json:"amount"`
	Status           Status          `json:"status"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// Intent is what the storefront needs to open the gateway's payment UI.
type Intent struct {
	OrderID        string          `json:"orderId"`
	GatewayOrderID string          `json:"gatewayOrderId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}
