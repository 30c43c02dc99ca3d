package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

type memStore struct {
	drinks  map[string]catalog.Drink
	options map[catalog.Category]map[string]catalog.Option
	users   map[string]user.User

	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		drinks:  map[string]catalog.Drink{},
		options: map[catalog.Category]map[string]catalog.Option{},
		users:   map[string]user.User{},
	}
}

// memTx stages writes on copies and swaps them in on commit.
type memTx struct {
	drinks  map[string]catalog.Drink
	options map[catalog.Category]map[string]catalog.Option
	users   map[string]user.User
	failOn  string
}

func (s *memStore) InTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	tx := &memTx{
		drinks:  map[string]catalog.Drink{},
		options: map[catalog.Category]map[string]catalog.Option{},
		users:   map[string]user.User{},
		failOn:  s.failOn,
	}
	for k, v := range s.drinks {
		tx.drinks[k] = v
	}
	for c, m := range s.options {
		tx.options[c] = map[string]catalog.Option{}
		for k, v := range m {
			tx.options[c][k] = v
		}
	}
	for k, v := range s.users {
		tx.users[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.drinks, s.options, s.users = tx.drinks, tx.options, tx.users
	return nil
}

func (tx *memTx) HasDrinks(context.Context) (bool, error) {
	return len(tx.drinks) > 0, nil
}

func (tx *memTx) InsertDrink(_ context.Context, d catalog.Drink) error {
	if d.ID == tx.failOn {
		return errors.New("insert failed")
	}
	tx.drinks[d.ID] = d
	return nil
}

func (tx *memTx) InsertOption(_ context.Context, c catalog.Category, o catalog.Option) error {
	if tx.options[c] == nil {
		tx.options[c] = map[string]catalog.Option{}
	}
	tx.options[c][o.ID] = o
	return nil
}

func (tx *memTx) EnsureUser(_ context.Context, u user.User) (bool, error) {
	if _, ok := tx.users[u.ID]; ok {
		return false, nil
	}
	tx.users[u.ID] = u
	return true, nil
}

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	prices := map[string]int64{}
	for _, d := range c.Drinks {
		assert.True(t, d.Active, d.ID)
		prices[d.ID] = d.Price
	}
	assert.Equal(t, map[string]int64{
		"americano":     150,
		"cappuccino":    180,
		"latte":         190,
		"filter":        170,
		"hot-chocolate": 200,
	}, prices)

	assert.Len(t, c.Options[catalog.Beans], 3)
	assert.Len(t, c.Options[catalog.Milk], 5)
	assert.Len(t, c.Options[catalog.Syrups], 5)
}

func TestSeeder_Idempotent(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	store := newMemStore()
	s := New(store, c)
	ctx := context.Background()

	first, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Drinks)
	assert.Equal(t, 13, first.Options)
	assert.True(t, first.UserCreated)

	second, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, second)

	assert.Len(t, store.drinks, 5)
	require.Contains(t, store.users, user.DefaultID)
	assert.Equal(t, int64(DefaultUserPoints), store.users[user.DefaultID].Points)
	assert.Len(t, store.users, 1)
}

func TestSeeder_ExistingCatalogStillEnsuresUser(t *testing.T) {
	store := newMemStore()
	store.drinks["espresso"] = catalog.Drink{ID: "espresso", Active: true}

	res, err := New(store, &Catalog{Drinks: []catalog.Drink{{ID: "latte"}}}).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Drinks)
	assert.True(t, res.UserCreated)
	assert.NotContains(t, store.drinks, "latte")
}

func TestSeeder_FailureRollsBack(t *testing.T) {
	store := newMemStore()
	store.failOn = "b"

	c := &Catalog{Drinks: []catalog.Drink{{ID: "a"}, {ID: "b"}}}
	_, err := New(store, c).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.drinks)
	assert.Empty(t, store.users)
}

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(`{
		"drinks": [{"id": "x", "name": "X", "price": 10, "is_active": false, "extra": [1, 2]}],
		"milk": [{"id": "oat", "name": "Oat", "price": 30}],
		"comment": "ignored"
	}`))
	require.NoError(t, err)
	require.Len(t, c.Drinks, 1)
	assert.False(t, c.Drinks[0].Active)
	assert.Equal(t, []catalog.Option{{ID: "oat", Name: "Oat", Price: 30}}, c.Options[catalog.Milk])

	_, err = ParseCatalog([]byte(`{"drinks": [{"id": "x"}, {"id": "x"}]}`))
	require.Error(t, err)

	_, err = ParseCatalog([]byte(`{"drinks": [{"name": "nameless"}]}`))
	require.Error(t, err)

	_, err = ParseCatalog([]byte(`{"drinks": [`))
	require.Error(t, err)
}

func TestLoadCatalog_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(`{"drinks": [{"id": "mocha", "name": "Mocha", "price": 210}]}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Drinks, 1)
	assert.Equal(t, "mocha", c.Drinks[0].ID)
	assert.Equal(t, int64(210), c.Drinks[0].Price)
}

func TestLoadCatalog_EmptyPathUsesEmbedded(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, c.Drinks, 5)
}
