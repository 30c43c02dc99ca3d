package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coffee-shop/internal/domain/auth"
	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

// apiError is an error that already knows its HTTP status.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func errBadRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func errUnprocessable(format string, args ...any) error {
	return &apiError{status: http.StatusUnprocessableEntity, message: fmt.Sprintf(format, args...)}
}

func errNotFound(message string) error {
	return &apiError{status: http.StatusNotFound, message: message}
}

// statusOf maps an error to the HTTP status and client message.
func statusOf(err error) (int, string) {
	var (
		apiErr *apiError
		dnf    *order.DrinkNotFoundError
		iq     *order.InvalidQuantityError
		ip     *order.InvalidPriceError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.status, apiErr.message
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.As(err, &dnf):
		return http.StatusNotFound, dnf.Error()
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, catalog.ErrDrinkNotFound),
		errors.Is(err, catalog.ErrUnknownCategory):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, catalog.ErrDrinkExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &iq),
		errors.As(err, &ip),
		errors.Is(err, user.ErrNegativePoints),
		errors.Is(err, catalog.ErrInvalidDrink):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError writes {"code": status, "message": "..."}. Server errors are
// logged with the request logger; their cause is not sent to the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := statusOf(err)
	if status == http.StatusInternalServerError {
		zctx.From(ctx).Error("Request failed", zap.Error(err))
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
