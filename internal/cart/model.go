package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line is a cart line, unique per product. UnitPrice is the catalog price
// fetched at the last mutation; order placement re-snapshots it.
type Line struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Cart struct {
	ID        string          `json:"cartId"`
	UserID    string          `json:"userId"`
	Lines     []Line          `json:"items"`
	Total     decimal.Decimal `json:"totalAmount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// RecalculateTotal derives the total from the lines. The total is never
// stored independently of the lines.
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for _, ln := range c.Lines {
		total = total.Add(ln.UnitPrice.Mul(decimal.NewFromInt(int64(ln.Quantity))))
	}
	c.Total = total
}
