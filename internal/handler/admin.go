package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// AdminLogin exchanges admin credentials for a bearer token.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username, password, err := decodeLogin(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if username == "" || password == "" {
		writeError(ctx, w, errUnprocessable("username and password are required"))
		return
	}
	token, err := h.gate.Login(ctx, username, password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("access_token", func(e *jx.Encoder) { e.Str(token.AccessToken) })
			e.Field("token_type", func(e *jx.Encoder) { e.Str(token.TokenType) })
		})
	})
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrders(e, orders) })
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeUsers(e, users) })
}

// AdminListDrinks returns every drink, inactive ones included.
func (h *Handler) AdminListDrinks(w http.ResponseWriter, r *http.Request) {
	drinks, err := h.drinks.ListAll(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeDrinks(e, drinks) })
}

func (h *Handler) AdminCreateDrink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	drink, err := decodeCreateDrink(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := drink.Validate(); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.drinks.Create(ctx, &drink); err != nil {
		writeError(ctx, w, err)
		return
	}
	auditLogger(ctx).Info("Drink created", zap.String("drink_id", drink.ID))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeDrink(e, drink) })
}

// AdminUpdateDrink applies a partial update; absent fields are kept.
func (h *Handler) AdminUpdateDrink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patch, err := decodeDrinkPatch(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(ctx, w, err)
		return
	}
	d, err := h.drinks.Update(ctx, r.PathValue("id"), patch)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	auditLogger(ctx).Info("Drink updated", zap.String("drink_id", d.ID))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeDrink(e, *d) })
}

// AdminDeleteDrink removes a drink. Orders keep their lines for it.
func (h *Handler) AdminDeleteDrink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := h.drinks.Delete(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	auditLogger(ctx).Info("Drink deleted", zap.String("drink_id", id))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("drink " + id + " deleted") })
		})
	})
}
