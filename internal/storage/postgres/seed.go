package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/user"
	"github.com/xenking/coffee-shop/internal/seed"
)

var (
	_ seed.Store = (*SeedStore)(nil)
	_ seed.Tx    = (*seedTx)(nil)
)

// SeedStore implements seed.Store backed by PostgreSQL.
type SeedStore struct {
	pool *pgxpool.Pool
}

// NewSeedStore returns a SeedStore that uses the given pool.
func NewSeedStore(pool *pgxpool.Pool) *SeedStore {
	return &SeedStore{pool: pool}
}

// InTx runs fn in a single transaction. The drinks table is locked for the
// duration so that concurrent seeders serialise on the emptiness check.
func (s *SeedStore) InTx(ctx context.Context, fn func(ctx context.Context, tx seed.Tx) error) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE drinks IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("locking drinks: %w", err)
		}
		return fn(ctx, &seedTx{tx: tx})
	})
}

type seedTx struct {
	tx pgx.Tx
}

func (t *seedTx) HasDrinks(ctx context.Context) (bool, error) {
	var has bool
	if err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drinks)`).Scan(&has); err != nil {
		return false, fmt.Errorf("checking drinks: %w", err)
	}
	return has, nil
}

func (t *seedTx) InsertDrink(ctx context.Context, d catalog.Drink) error {
	if err := insertDrink(ctx, t.tx, &d); err != nil {
		return fmt.Errorf("inserting drink %q: %w", d.ID, err)
	}
	return nil
}

func (t *seedTx) InsertOption(ctx context.Context, c catalog.Category, o catalog.Option) error {
	return insertOption(ctx, t.tx, c, o)
}

func (t *seedTx) EnsureUser(ctx context.Context, u user.User) (bool, error) {
	return ensureUser(ctx, t.tx, u)
}
