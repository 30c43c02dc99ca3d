package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
)

var _ catalog.Repository = (*DrinkRepository)(nil)

const drinkColumns = `id, name, description, price, image, is_active`

// DrinkRepository implements catalog.Repository backed by PostgreSQL.
type DrinkRepository struct {
	pool *pgxpool.Pool
}

// NewDrinkRepository returns a DrinkRepository that uses the given pool.
func NewDrinkRepository(pool *pgxpool.Pool) *DrinkRepository {
	return &DrinkRepository{pool: pool}
}

// ListActive returns the public menu ordered by name.
func (r *DrinkRepository) ListActive(ctx context.Context) ([]catalog.Drink, error) {
	drinks, err := queryDrinks(ctx, r.pool,
		`SELECT `+drinkColumns+` FROM drinks WHERE is_active ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing active drinks: %w", err)
	}
	return drinks, nil
}

// ListAll returns every drink including inactive ones.
func (r *DrinkRepository) ListAll(ctx context.Context) ([]catalog.Drink, error) {
	drinks, err := queryDrinks(ctx, r.pool,
		`SELECT `+drinkColumns+` FROM drinks ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing drinks: %w", err)
	}
	return drinks, nil
}

// GetActive returns an active drink or catalog.ErrDrinkNotFound.
func (r *DrinkRepository) GetActive(ctx context.Context, id string) (*catalog.Drink, error) {
	return getDrink(ctx, r.pool,
		`SELECT `+drinkColumns+` FROM drinks WHERE id = $1 AND is_active`, id)
}

// Get returns a drink regardless of its active flag.
func (r *DrinkRepository) Get(ctx context.Context, id string) (*catalog.Drink, error) {
	return getDrink(ctx, r.pool,
		`SELECT `+drinkColumns+` FROM drinks WHERE id = $1`, id)
}

// Create inserts d, generating an id when d.ID is empty.
func (r *DrinkRepository) Create(ctx context.Context, d *catalog.Drink) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if err := insertDrink(ctx, r.pool, d); err != nil {
		if isUniqueViolation(err) {
			return catalog.ErrDrinkExists
		}
		return fmt.Errorf("creating drink %q: %w", d.ID, err)
	}
	return nil
}

// Update applies the present fields of patch in one statement.
func (r *DrinkRepository) Update(ctx context.Context, id string, patch catalog.DrinkPatch) (*catalog.Drink, error) {
	if patch.Empty() {
		return r.Get(ctx, id)
	}
	return getDrink(ctx, r.pool, `
		UPDATE drinks SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			price       = COALESCE($4, price),
			image       = COALESCE($5, image),
			is_active   = COALESCE($6, is_active)
		WHERE id = $1
		RETURNING `+drinkColumns,
		id, patch.Name, patch.Description, patch.Price, patch.Image, patch.Active)
}

// Delete removes a drink. Order items keep referencing its id.
func (r *DrinkRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM drinks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting drink %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrDrinkNotFound
	}
	return nil
}

func insertDrink(ctx context.Context, q querier, d *catalog.Drink) error {
	_, err := q.Exec(ctx,
		`INSERT INTO drinks (`+drinkColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.Name, d.Description, d.Price, d.Image, d.Active)
	return err
}

func queryDrinks(ctx context.Context, q querier, sql string, args ...any) ([]catalog.Drink, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Drink])
}

func getDrink(ctx context.Context, q querier, sql string, args ...any) (*catalog.Drink, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying drink: %w", err)
	}
	d, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[catalog.Drink])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrDrinkNotFound
		}
		return nil, fmt.Errorf("scanning drink: %w", err)
	}
	return d, nil
}
