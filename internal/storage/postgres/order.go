package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/order"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

var (
	_ order.Store = (*OrderStore)(nil)
	_ order.Tx    = (*orderTx)(nil)
)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// InTx runs fn in a single transaction.
func (s *OrderStore) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &orderTx{tx: tx})
	})
}

// ListByUser returns the user's orders with items, newest first.
func (s *OrderStore) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	orders, err := listOrders(ctx, s.pool,
		`SELECT id, user_id, total, points_earned, created_at FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user %q: %w", userID, err)
	}
	return orders, nil
}

// ListAll returns every order with items, newest first.
func (s *OrderStore) ListAll(ctx context.Context) ([]order.Order, error) {
	orders, err := listOrders(ctx, s.pool,
		`SELECT id, user_id, total, points_earned, created_at FROM orders
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) EnsureUser(ctx context.Context, userID string) error {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking user %q: %w", userID, err)
	}
	if !exists {
		return user.ErrNotFound
	}
	return nil
}

func (t *orderTx) ActiveDrinks(ctx context.Context, ids []string) ([]catalog.Drink, error) {
	drinks, err := queryDrinks(ctx, t.tx,
		`SELECT `+drinkColumns+` FROM drinks WHERE id = ANY($1) AND is_active`, ids)
	if err != nil {
		return nil, fmt.Errorf("loading drinks: %w", err)
	}
	return drinks, nil
}

func (t *orderTx) Insert(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, total, points_earned) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		o.ID, o.UserID, o.Total, o.PointsEarned,
	).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	batch := &pgx.Batch{}
	for i, it := range o.Items {
		batch.Queue(`INSERT INTO order_items
			(id, order_id, drink_id, quantity, bean_option, milk_option, syrup_option, price, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, o.ID, it.DrinkID, it.Quantity, it.BeanOption, it.MilkOption, it.SyrupOption, it.Price, i)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting items of order %q: %w", o.ID, err)
	}
	return nil
}

func (t *orderTx) AddPoints(ctx context.Context, userID string, points int64) (int64, error) {
	var balance int64
	err := t.tx.QueryRow(ctx,
		`UPDATE users SET points = points + $2 WHERE id = $1 RETURNING points`,
		userID, points,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("adding points to user %q: %w", userID, err)
	}
	return balance, nil
}

func listOrders(ctx context.Context, q querier, sql string, args ...any) ([]order.Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		var o order.Order
		err := row.Scan(&o.ID, &o.UserID, &o.Total, &o.PointsEarned, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err = q.Query(ctx,
		`SELECT id, order_id, drink_id, quantity, bean_option, milk_option, syrup_option, price
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[order.Item])
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		o := byID[it.OrderID]
		o.Items = append(o.Items, it)
	}
	return orders, nil
}
