package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
)

// Order is a completed purchase. Orders are immutable once stored.
type Order struct {
	ID           string
	UserID       string
	Total        decimal.Decimal
	PointsEarned int64
	CreatedAt    time.Time
	Items        []Item
}

// Item is a single order line. Price is the unit price supplied with the
// request, not the line total.
type Item struct {
	ID          string
	OrderID     string
	DrinkID     string
	Quantity    int
	BeanOption  string
	MilkOption  string
	SyrupOption string
	Price       decimal.Decimal
}

// Store persists orders.
type Store interface {
	// InTx runs fn inside one database transaction. The transaction commits
	// only if fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

// Tx is the set of operations the order transaction performs.
type Tx interface {
	// EnsureUser returns user.ErrNotFound if the user does not exist.
	EnsureUser(ctx context.Context, userID string) error
	// ActiveDrinks returns the active drinks among ids. Missing or inactive
	// ids are simply absent from the result.
	ActiveDrinks(ctx context.Context, ids []string) ([]catalog.Drink, error)
	Insert(ctx context.Context, o *Order) error
	// AddPoints increments the balance in a single statement and returns the
	// new balance.
	AddPoints(ctx context.Context, userID string, points int64) (int64, error)
}
