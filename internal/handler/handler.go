// Package handler exposes the coffee shop over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/xenking/coffee-shop/internal/domain/auth"
	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/profile"
	"github.com/xenking/coffee-shop/internal/domain/user"
	"github.com/xenking/coffee-shop/pkg/health"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative drink image paths. When empty,
	// images are returned as stored.
	ImageBaseURL string
}

// OrderService places and lists orders.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.PlaceOrderResult, error)
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
}

// ProfileService assembles user profiles.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
}

// Authenticator issues and verifies admin tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Authenticate(token string) (string, error)
}

// Handler serves the REST API.
type Handler struct {
	drinks   catalog.Repository
	users    user.Repository
	orders   OrderService
	profiles ProfileService
	gate     Authenticator

	imageBaseURL string
}

// New creates a Handler.
func New(
	cfg Config,
	drinks catalog.Repository,
	users user.Repository,
	orders OrderService,
	profiles ProfileService,
	gate Authenticator,
) *Handler {
	return &Handler{
		drinks:       drinks,
		users:        users,
		orders:       orders,
		profiles:     profiles,
		gate:         gate,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
	}
}

// Register mounts every API route on mux. Admin routes require a bearer
// token issued by the admin login.
func (h *Handler) Register(mux *http.ServeMux) {
	admin := RequireAdmin(h.gate)

	mux.HandleFunc("GET /health", health.StaticEndpoint)

	mux.HandleFunc("GET /api/drinks", h.ListDrinks)
	mux.HandleFunc("GET /api/drinks/{id}", h.GetDrink)
	mux.HandleFunc("GET /api/drinks/options/{category}", h.ListOptions)

	mux.HandleFunc("POST /api/users", h.CreateUser)
	mux.HandleFunc("GET /api/users/{id}", h.GetUser)
	mux.HandleFunc("PUT /api/users/{id}", h.UpdateUser)
	mux.HandleFunc("GET /api/users/{id}/profile", h.GetProfile)
	mux.HandleFunc("GET /api/users/{id}/orders", h.ListUserOrders)
	mux.HandleFunc("POST /api/users/{id}/orders", h.PlaceOrder)

	mux.HandleFunc("POST /api/admin/login", h.AdminLogin)
	mux.Handle("GET /api/admin/orders", admin(http.HandlerFunc(h.AdminListOrders)))
	mux.Handle("GET /api/admin/users", admin(http.HandlerFunc(h.AdminListUsers)))
	mux.Handle("GET /api/admin/drinks", admin(http.HandlerFunc(h.AdminListDrinks)))
	mux.Handle("POST /api/admin/drinks", admin(http.HandlerFunc(h.AdminCreateDrink)))
	mux.Handle("PUT /api/admin/drinks/{id}", admin(http.HandlerFunc(h.AdminUpdateDrink)))
	mux.Handle("DELETE /api/admin/drinks/{id}", admin(http.HandlerFunc(h.AdminDeleteDrink)))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(r.Context(), w, errNotFound("route not found"))
	})
}

// imageURL resolves a stored image against the configured base URL.
func (h *Handler) imageURL(image string) string {
	if h.imageBaseURL == "" || image == "" ||
		strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(image, "/")
}
