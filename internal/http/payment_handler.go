package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/akseline/store-backend-go/internal/payment"
)

type PaymentHandler struct {
	verifier *payment.Verifier
}

func NewPaymentHandler(verifier *payment.Verifier) *PaymentHandler {
	return &PaymentHandler{verifier: verifier}
}

// CreateIntent registers the order with the payment gateway and returns
// what the storefront needs to open the checkout widget.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	intent, err := h.verifier.CreateIntent(ctx, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, intent)
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		writeError(w, http.StatusBadRequest, "missing gateway order id, payment id or signature")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.verifier.Verify(ctx, orderID, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
