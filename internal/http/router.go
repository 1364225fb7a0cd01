package http

import (
	"log"
	"net/http"

	"github.com/akseline/store-backend-go/internal/cart"
	"github.com/akseline/store-backend-go/internal/catalog"
	"github.com/akseline/store-backend-go/internal/middleware"
	"github.com/akseline/store-backend-go/internal/order"
	"github.com/akseline/store-backend-go/internal/payment"
	"github.com/akseline/store-backend-go/internal/shipment"
	"github.com/akseline/store-backend-go/internal/wishlist"
)

// Deps carries everything the router wires handlers to.
type Deps struct {
	Products  catalog.Repository
	Carts     *cart.Service
	Orders    *order.Workflow
	OrderRepo order.Repository
	Payments  *payment.Verifier
	Shipments *shipment.Issuer
	ShipRepo  shipment.Repository
	Wishlists *wishlist.Service

	Logger           *log.Logger
	CORSAllowOrigins []string
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Per-user routes sit behind the identity check.
	user := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireUserID(h)
	}

	mux.HandleFunc("GET /health", healthHandler)

	products := NewCatalogHandler(d.Products)
	mux.HandleFunc("GET /api/products", products.ListProducts)
	mux.HandleFunc("GET /api/products/{productId}", products.GetProduct)
	mux.HandleFunc("POST /api/products", products.CreateProduct)
	mux.HandleFunc("PUT /api/products/{productId}", products.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{productId}", products.DeleteProduct)

	carts := NewCartHandler(d.Carts)
	mux.Handle("GET /api/cart", user(carts.GetCart))
	mux.Handle("POST /api/cart/items", user(carts.AddItem))
	mux.Handle("DELETE /api/cart/items/{productId}", user(carts.RemoveItem))
	mux.Handle("DELETE /api/cart", user(carts.ClearCart))

	orders := NewOrderHandler(d.Orders)
	mux.Handle("POST /api/orders", user(orders.PlaceOrder))
	mux.Handle("GET /api/orders", user(orders.ListMyOrders))
	mux.HandleFunc("GET /api/orders/{orderId}", orders.GetOrder)
	mux.HandleFunc("PUT /api/orders/{orderId}/status", orders.UpdateStatus)
	mux.HandleFunc("GET /api/admin/orders", orders.ListAllOrders)

	payments := NewPaymentHandler(d.Payments)
	mux.HandleFunc("POST /api/orders/{orderId}/payment", payments.CreateIntent)
	mux.HandleFunc("POST /api/orders/{orderId}/payment/verify", payments.Verify)

	shipments := NewShipmentHandler(d.Shipments, d.ShipRepo)
	mux.HandleFunc("POST /api/orders/{orderId}/shipment", shipments.CreateShipment)
	mux.HandleFunc("GET /api/orders/{orderId}/shipment", shipments.GetShipment)
	mux.HandleFunc("GET /api/shipments/{trackingId}", shipments.Track)

	wishlists := NewWishlistHandler(d.Wishlists)
	mux.Handle("GET /api/wishlist", user(wishlists.GetWishlist))
	mux.Handle("POST /api/wishlist/{productId}", user(wishlists.AddProduct))
	mux.Handle("DELETE /api/wishlist/{productId}", user(wishlists.RemoveProduct))

	admin := NewAdminHandler(d.Products, d.OrderRepo)
	mux.HandleFunc("GET /api/admin/stats", admin.Stats)

	var h http.Handler = mux
	h = middleware.Recover(d.Logger)(h)
	h = middleware.CORS(d.CORSAllowOrigins)(h)
	h = middleware.CorrelationID(h)
	return h
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "store-backend",
	})
}
