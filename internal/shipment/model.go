package shipment

import "time"

const StatusReadyForPickup = "Ready for Pickup"

// Shipment is the carrier-side record for an order. One per order, created
// only once the order is paid.
type Shipment struct {
	ID         string    `json:"shipmentId"`
	OrderID    string    `json:"orderId"`
	TrackingID string    `json:"trackingId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Manifest is the order snapshot handed to the carrier.
type Manifest struct {
	OrderID string
	Name    string
	Address string
	City    string
	Zip     string
	Phone   string
}
