package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/akseline/store-backend-go/internal/catalog"
	"github.com/akseline/store-backend-go/internal/order"
)

type AdminHandler struct {
	products catalog.Repository
	orders   order.Repository
}

func NewAdminHandler(products catalog.Repository, orders order.Repository) *AdminHandler {
	return &AdminHandler{products: products, orders: orders}
}

type statsResponse struct {
	TotalProducts int64           `json:"totalProducts"`
	TotalOrders   int64           `json:"totalOrders"`
	TotalUsers    int64           `json:"totalUsers"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

// Stats aggregates the storefront-wide counters the admin dashboard shows.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		resp statsResponse
		err  error
	)

	if resp.TotalProducts, err = h.products.Count(ctx); err != nil {
		writeServiceError(w, err)
		return
	}
	if resp.TotalOrders, err = h.orders.Count(ctx); err != nil {
		writeServiceError(w, err)
		return
	}
	if resp.TotalUsers, err = h.orders.CountCustomers(ctx); err != nil {
		writeServiceError(w, err)
		return
	}
	if resp.TotalRevenue, err = h.orders.TotalRevenue(ctx); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
