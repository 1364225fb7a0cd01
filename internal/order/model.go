package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a line frozen at placement. UnitPrice is the snapshot price; later
// catalog changes never touch it.
type Item struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPriceAtPurchase"`
}

type ShippingInfo struct {
	Name    string `json:"shippingName"`
	Address string `json:"shippingAddress"`
	City    string `json:"shippingCity"`
	Zip     string `json:"shippingZip"`
	Phone   string `json:"shippingPhone"`
}

type Order struct {
	ID          string          `json:"orderId"`
	UserID      string          `json:"userId"`
	Items       []Item          `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      Status          `json:"status"`
	Shipping    ShippingInfo    `json:"shipping"`

	// GatewayOrderID is the payment gateway's order id, set when a payment
	// intent is created. Empty until then.
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
