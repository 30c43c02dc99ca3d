package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/coffee-shop/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

const userColumns = `id, name, points, avatar, created_at`

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Get returns a user or user.ErrNotFound.
func (r *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	return getUser(ctx, r.pool, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// List returns all users, oldest first.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByPos[user.User])
	if err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	return users, nil
}

// Create inserts u and fills in its creation time.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, points, avatar) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		u.ID, u.Name, u.Points, u.Avatar,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// Update applies the present fields of patch. Points are never touched here.
func (r *UserRepository) Update(ctx context.Context, id string, patch user.Patch) (*user.User, error) {
	return getUser(ctx, r.pool, `
		UPDATE users SET
			name   = COALESCE($2, name),
			avatar = CASE WHEN $3::boolean THEN $4::text ELSE avatar END
		WHERE id = $1
		RETURNING `+userColumns,
		id, patch.Name, patch.SetAvatar, patch.Avatar)
}

func getUser(ctx context.Context, q querier, sql string, args ...any) (*user.User, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByPos[user.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// ensureUser inserts u unless a user with the same id already exists.
func ensureUser(ctx context.Context, q querier, u user.User) (bool, error) {
	tag, err := q.Exec(ctx,
		`INSERT INTO users (id, name, points, avatar) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Name, u.Points, u.Avatar)
	if err != nil {
		return false, fmt.Errorf("ensuring user %q: %w", u.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}
