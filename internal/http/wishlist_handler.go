package http

import (
	"context"
	"net/http"
	"time"

	"github.com/akseline/store-backend-go/internal/middleware"
	"github.com/akseline/store-backend-go/internal/wishlist"
)

type WishlistHandler struct {
	wishlists *wishlist.Service
}

func NewWishlistHandler(wishlists *wishlist.Service) *WishlistHandler {
	return &WishlistHandler{wishlists: wishlists}
}

func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	wl, err := h.wishlists.Get(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wl)
}

func (h *WishlistHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	wl, err := h.wishlists.AddProduct(ctx, middleware.GetUserID(ctx), productID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wl)
}

func (h *WishlistHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	wl, err := h.wishlists.RemoveProduct(ctx, middleware.GetUserID(ctx), productID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wl)
}
