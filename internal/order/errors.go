package order

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty, nothing to order")
	ErrInvalidTransition = errors.New("invalid order status transition")
)
