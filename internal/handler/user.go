package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/coffee-shop/internal/domain/user"
)

// CreateUser registers a new customer.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := decodeCreateUser(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	u, err := user.New(req.Name, req.Points, req.Avatar)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.users.Create(ctx, u); err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeUser(e, *u) })
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, *u) })
}

// UpdateUser applies a partial update of name and avatar. Points cannot be
// set through this endpoint.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patch, err := decodeUserPatch(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	u, err := h.users.Update(ctx, r.PathValue("id"), patch)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUser(e, *u) })
}

// GetProfile returns the user with order history and lifetime totals.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeProfile(e, p) })
}
