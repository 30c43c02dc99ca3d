package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/coffee-shop/internal/domain/order"
)

// PlaceOrder creates an order for the user named in the path and credits
// the earned points.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := decodePlaceOrder(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	result, err := h.orders.PlaceOrder(ctx, order.PlaceOrderRequest{
		UserID: r.PathValue("id"),
		Items:  items,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, *result.Order) })
}

// ListUserOrders returns the user's orders, newest first.
func (h *Handler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}
