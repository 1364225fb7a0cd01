package http

import (
	"context"
	"net/http"
	"time"

	"github.com/akseline/store-backend-go/internal/shipment"
)

type ShipmentHandler struct {
	issuer *shipment.Issuer
	repo   shipment.Repository
}

func NewShipmentHandler(issuer *shipment.Issuer, repo shipment.Repository) *ShipmentHandler {
	return &ShipmentHandler{issuer: issuer, repo: repo}
}

func (h *ShipmentHandler) CreateShipment(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s, err := h.issuer.CreateShipment(ctx, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, s)
}

func (h *ShipmentHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "shipment not found")
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// Track returns the carrier's live status for a waybill we issued.
func (h *ShipmentHandler) Track(w http.ResponseWriter, r *http.Request) {
	trackingID := r.PathValue("trackingId")
	if trackingID == "" {
		writeError(w, http.StatusBadRequest, "missing trackingId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	s, err := h.repo.GetByTrackingID(ctx, trackingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "shipment not found")
		return
	}

	status, err := h.issuer.TrackShipment(ctx, trackingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"trackingId": trackingID,
		"orderId":    s.OrderID,
		"status":     status,
	})
}
