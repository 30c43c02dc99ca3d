// Package seed prepares a fresh database for serving traffic.
package seed

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

// DefaultUserPoints is the starting balance of the default user.
const DefaultUserPoints = 250

// Store runs the seed inside one transaction.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes the seeder performs.
type Tx interface {
	HasDrinks(ctx context.Context) (bool, error)
	InsertDrink(ctx context.Context, d catalog.Drink) error
	InsertOption(ctx context.Context, c catalog.Category, o catalog.Option) error
	// EnsureUser inserts u unless the id is taken and reports whether it did.
	EnsureUser(ctx context.Context, u user.User) (bool, error)
}

// Result summarises what a seed run changed.
type Result struct {
	Drinks      int
	Options     int
	UserCreated bool
}

// Seeder inserts the catalog and the default user. Running it any number of
// times leaves exactly one copy of each.
type Seeder struct {
	store   Store
	catalog *Catalog
}

// New creates a Seeder for the given catalog.
func New(store Store, c *Catalog) *Seeder {
	return &Seeder{store: store, catalog: c}
}

// Run seeds the database. The catalog is only inserted when no drink exists.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		res = Result{}

		has, err := tx.HasDrinks(ctx)
		if err != nil {
			return errors.Wrap(err, "check drinks")
		}
		if !has {
			for _, d := range s.catalog.Drinks {
				if err := tx.InsertDrink(ctx, d); err != nil {
					return errors.Wrapf(err, "insert drink %s", d.ID)
				}
				res.Drinks++
			}
			for _, c := range catalog.Categories {
				for _, o := range s.catalog.Options[c] {
					if err := tx.InsertOption(ctx, c, o); err != nil {
						return errors.Wrapf(err, "insert %s option %s", c, o.ID)
					}
					res.Options++
				}
			}
		}

		created, err := tx.EnsureUser(ctx, user.User{
			ID:     user.DefaultID,
			Name:   user.DefaultName,
			Points: DefaultUserPoints,
		})
		if err != nil {
			return errors.Wrap(err, "ensure default user")
		}
		res.UserCreated = created
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	zctx.From(ctx).Info("Seed completed",
		zap.Int("drinks", res.Drinks),
		zap.Int("options", res.Options),
		zap.Bool("default_user_created", res.UserCreated),
	)
	return res, nil
}
