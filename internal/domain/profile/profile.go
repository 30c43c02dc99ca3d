package profile

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

// Profile is a user together with their order history and lifetime totals.
type Profile struct {
	User              user.User
	Orders            []order.Order
	TotalSpent        decimal.Decimal
	TotalPointsEarned int64
}

// OrderLister reads a user's order history, newest first.
type OrderLister interface {
	ListByUser(ctx context.Context, userID string) ([]order.Order, error)
}

// Service assembles profiles. Totals are recomputed on every call.
type Service struct {
	users  user.Repository
	orders OrderLister
}

// NewService creates a profile Service.
func NewService(users user.Repository, orders OrderLister) *Service {
	return &Service{users: users, orders: orders}
}

// Get returns the profile of userID or user.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	p := &Profile{
		User:       *u,
		Orders:     orders,
		TotalSpent: decimal.Zero,
	}
	for _, o := range orders {
		p.TotalSpent = p.TotalSpent.Add(o.Total)
		p.TotalPointsEarned += o.PointsEarned
	}
	return p, nil
}
