package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akseline/store-backend-go/internal/cart"
	"github.com/akseline/store-backend-go/internal/catalog"
	"github.com/akseline/store-backend-go/internal/order"
	"github.com/akseline/store-backend-go/internal/payment"
	"github.com/akseline/store-backend-go/internal/shipment"
	"github.com/akseline/store-backend-go/internal/upstream"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, payment.ErrSignatureMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, payment.ErrAlreadyPaid),
		errors.Is(err, shipment.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		var ue *upstream.Error
		if errors.As(err, &ue) {
			writeError(w, http.StatusBadGateway, ue.Op+" unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
