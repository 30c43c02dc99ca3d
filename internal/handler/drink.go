package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
)

// ListDrinks returns the active menu.
func (h *Handler) ListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.drinks.ListActive(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeDrinks(e, drinks) })
}

// GetDrink returns one active drink. Inactive drinks are reported as missing.
func (h *Handler) GetDrink(w http.ResponseWriter, r *http.Request) {
	d, err := h.drinks.GetActive(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeDrink(e, *d) })
}

// ListOptions returns the options of one category, cheapest first.
func (h *Handler) ListOptions(w http.ResponseWriter, r *http.Request) {
	c, err := catalog.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	opts, err := h.drinks.ListOptions(r.Context(), c)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOptions(e, opts) })
}
