package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
)

var optionTables = map[catalog.Category]string{
	catalog.Beans:  "bean_options",
	catalog.Milk:   "milk_options",
	catalog.Syrups: "syrup_options",
}

func optionTable(c catalog.Category) (string, error) {
	table, ok := optionTables[c]
	if !ok {
		return "", catalog.ErrUnknownCategory
	}
	return table, nil
}

// ListOptions returns every option in the category ordered by price, then id.
func (r *DrinkRepository) ListOptions(ctx context.Context, c catalog.Category) ([]catalog.Option, error) {
	table, err := optionTable(c)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, price FROM `+table+` ORDER BY price, id`)
	if err != nil {
		return nil, fmt.Errorf("listing %s options: %w", c, err)
	}
	opts, err := pgx.CollectRows(rows, pgx.RowToStructByPos[catalog.Option])
	if err != nil {
		return nil, fmt.Errorf("scanning %s options: %w", c, err)
	}
	return opts, nil
}

func insertOption(ctx context.Context, q querier, c catalog.Category, o catalog.Option) error {
	table, err := optionTable(c)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx,
		`INSERT INTO `+table+` (id, name, price) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		o.ID, o.Name, o.Price)
	if err != nil {
		return fmt.Errorf("inserting %s option %q: %w", c, o.ID, err)
	}
	return nil
}
