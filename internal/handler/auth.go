package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coffee-shop/internal/domain/auth"
)

type adminKey struct{}

// AdminFromContext returns the authenticated admin name set by RequireAdmin.
func AdminFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminKey{}).(string)
	return v, ok
}

// auditLogger returns the request logger tagged with the acting admin.
func auditLogger(ctx context.Context) *zap.Logger {
	lg := zctx.From(ctx)
	if admin, ok := AdminFromContext(ctx); ok {
		lg = lg.With(zap.String("admin", admin))
	}
	return lg
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(gate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(ctx, w, auth.ErrUnauthorized)
				return
			}
			admin, err := gate.Authenticate(token)
			if err != nil {
				zctx.From(ctx).Debug("Admin token rejected", zap.Error(err))
				writeError(ctx, w, auth.ErrUnauthorized)
				return
			}
			ctx = context.WithValue(ctx, adminKey{}, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
