package order

import (
	"context"
	"sort"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/catalog"
	"github.com/xenking/coffee-shop/internal/domain/user"
)

// --- Fake store ---

// memStore applies transaction writes only when fn returns nil, so tests can
// observe rollback behaviour.
type memStore struct {
	drinks map[string]catalog.Drink
	users  map[string]*user.User
	orders []Order

	insertErr error
	commits   int
}

func newMemStore() *memStore {
	return &memStore{
		drinks: map[string]catalog.Drink{
			"latte":     {ID: "latte", Name: "Latte", Price: 190, Active: true},
			"americano": {ID: "americano", Name: "Americano", Price: 150, Active: true},
			"retired":   {ID: "retired", Name: "Retired", Price: 100, Active: false},
		},
		users: map[string]*user.User{
			"user-1": {ID: "user-1", Name: "Guest", Points: 250},
		},
	}
}

type memTx struct {
	s       *memStore
	pending []Order
	points  map[string]int64
}

func (s *memStore) InTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	tx := &memTx{s: s, points: map[string]int64{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.orders = append(s.orders, tx.pending...)
	for id, p := range tx.points {
		s.users[id].Points += p
	}
	s.commits++
	return nil
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == userID {
			out = append(out, s.orders[i])
		}
	}
	return out, nil
}

func (s *memStore) ListAll(_ context.Context) ([]Order, error) {
	out := make([]Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, s.orders[i])
	}
	return out, nil
}

func (tx *memTx) EnsureUser(_ context.Context, id string) error {
	if _, ok := tx.s.users[id]; !ok {
		return user.ErrNotFound
	}
	return nil
}

func (tx *memTx) ActiveDrinks(_ context.Context, ids []string) ([]catalog.Drink, error) {
	var out []catalog.Drink
	for _, id := range ids {
		if d, ok := tx.s.drinks[id]; ok && d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (tx *memTx) Insert(_ context.Context, o *Order) error {
	if tx.s.insertErr != nil {
		return tx.s.insertErr
	}
	tx.pending = append(tx.pending, *o)
	return nil
}

func (tx *memTx) AddPoints(_ context.Context, id string, p int64) (int64, error) {
	tx.points[id] += p
	return tx.s.users[id].Points + tx.points[id], nil
}

type memUsers struct{ s *memStore }

func (m memUsers) Get(_ context.Context, id string) (*user.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) List(context.Context) ([]user.User, error) { return nil, nil }
func (m memUsers) Create(context.Context, *user.User) error { return nil }
func (m memUsers) Update(context.Context, string, user.Patch) (*user.User, error) {
	return nil, nil
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestService(t *testing.T, store *memStore) *Service {
	t.Helper()
	svc, err := NewService(store, memUsers{s: store})
	require.NoError(t, err)
	return svc
}

func latte(qty int, price string) ItemRequest {
	return ItemRequest{
		DrinkID:     "latte",
		Quantity:    qty,
		BeanOption:  "arabica",
		MilkOption:  "oat",
		SyrupOption: "none",
		UnitPrice:   d(price),
	}
}

// --- Tests ---

func TestPlaceOrder_LatteScenario(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "user-1",
		Items:  []ItemRequest{latte(2, "190")},
	})
	require.NoError(t, err)

	assert.True(t, d("380").Equal(result.Order.Total), "total %s", result.Order.Total)
	assert.Equal(t, int64(38), result.Order.PointsEarned)
	assert.Equal(t, int64(288), result.Balance)
	assert.Equal(t, int64(288), store.users["user-1"].Points)

	require.Len(t, store.orders, 1)
	stored := store.orders[0]
	assert.NotEmpty(t, stored.ID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, stored.ID, stored.Items[0].OrderID)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	// The stored line price is the unit price, not the line total.
	assert.True(t, d("190").Equal(stored.Items[0].Price))
	assert.Equal(t, "oat", stored.Items[0].MilkOption)
}

func TestPlaceOrder_NonexistentDrinkAbortsEverything(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "user-1",
		Items: []ItemRequest{
			latte(1, "190"),
			{DrinkID: "nonexistent", Quantity: 1, UnitPrice: d("100")},
		},
	})

	var dnf *DrinkNotFoundError
	require.ErrorAs(t, err, &dnf)
	assert.Equal(t, "nonexistent", dnf.DrinkID)
	assert.Empty(t, store.orders)
	assert.Equal(t, int64(250), store.users["user-1"].Points)
	assert.Zero(t, store.commits)
}

func TestPlaceOrder_InactiveDrink(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "user-1",
		Items:  []ItemRequest{{DrinkID: "retired", Quantity: 1, UnitPrice: d("100")}},
	})

	var dnf *DrinkNotFoundError
	require.ErrorAs(t, err, &dnf)
	assert.Equal(t, "retired", dnf.DrinkID)
	assert.Empty(t, store.orders)
}

func TestPlaceOrder_UnknownUser(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "ghost",
		Items:  []ItemRequest{latte(1, "190")},
	})
	require.ErrorIs(t, err, user.ErrNotFound)
	assert.Empty(t, store.orders)
}

func TestPlaceOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []ItemRequest
		check func(t *testing.T, err error)
	}{
		{
			name:  "empty items",
			items: nil,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrEmptyItems)
			},
		},
		{
			name:  "zero quantity",
			items: []ItemRequest{latte(0, "190")},
			check: func(t *testing.T, err error) {
				var iq *InvalidQuantityError
				require.ErrorAs(t, err, &iq)
				assert.Equal(t, "latte", iq.DrinkID)
			},
		},
		{
			name:  "negative price",
			items: []ItemRequest{latte(1, "-1")},
			check: func(t *testing.T, err error) {
				var ip *InvalidPriceError
				require.ErrorAs(t, err, &ip)
				assert.Contains(t, ip.Error(), "negative")
			},
		},
		{
			name:  "quantity beyond column range",
			items: []ItemRequest{latte(1<<40, "190")},
			check: func(t *testing.T, err error) {
				var iq *InvalidQuantityError
				require.ErrorAs(t, err, &iq)
			},
		},
		{
			name:  "line total beyond money range",
			items: []ItemRequest{latte(2, "9999999999.99")},
			check: func(t *testing.T, err error) {
				var ip *InvalidPriceError
				require.ErrorAs(t, err, &ip)
				assert.Contains(t, ip.Error(), "line total")
			},
		},
		{
			name:  "order total beyond money range",
			items: []ItemRequest{latte(1, "6000000000"), latte(1, "6000000000")},
			check: func(t *testing.T, err error) {
				var ip *InvalidPriceError
				require.ErrorAs(t, err, &ip)
				assert.Contains(t, ip.Error(), "order total")
			},
		},
		{
			name:  "sub-cent price",
			items: []ItemRequest{latte(1, "190.005")},
			check: func(t *testing.T, err error) {
				var ip *InvalidPriceError
				require.ErrorAs(t, err, &ip)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := newTestService(t, store)

			_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
				UserID: "user-1",
				Items:  tt.items,
			})
			tt.check(t, err)
			assert.Zero(t, store.commits, "validation must fail before the transaction")
		})
	}
}

func TestPlaceOrder_TotalsAndPointsInvariant(t *testing.T) {
	carts := [][]ItemRequest{
		{latte(1, "9")},
		{latte(1, "19.99")},
		{latte(3, "190"), {DrinkID: "americano", Quantity: 1, UnitPrice: d("150")}},
		{latte(1, "0")},
		{latte(7, "33.33"), {DrinkID: "americano", Quantity: 2, UnitPrice: d("12.50")}},
	}

	for _, items := range carts {
		store := newMemStore()
		svc := newTestService(t, store)
		before := store.users["user-1"].Points

		result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{UserID: "user-1", Items: items})
		require.NoError(t, err)

		want := decimal.Zero
		for _, it := range items {
			want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
		assert.True(t, want.Equal(result.Order.Total), "total: want %s got %s", want, result.Order.Total)
		assert.Equal(t, want.Mul(d("0.1")).Floor().IntPart(), result.Order.PointsEarned)
		assert.Equal(t, before+result.Order.PointsEarned, store.users["user-1"].Points)
	}
}

func TestPlaceOrder_LargestAcceptedTotal(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "user-1",
		Items:  []ItemRequest{latte(1, "9999999999.99")},
	})
	require.NoError(t, err)
	assert.True(t, maxAmount.Equal(result.Order.Total))
	assert.Equal(t, int64(999999999), result.Order.PointsEarned)
}

func TestPlaceOrder_InsertErrorRollsBack(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("db write failed")
	svc := newTestService(t, store)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "user-1",
		Items:  []ItemRequest{latte(1, "190")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert order")
	assert.Equal(t, int64(250), store.users["user-1"].Points)
}

func TestPlaceOrder_DuplicateDrinkLines(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	result, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: "user-1",
		Items:  []ItemRequest{latte(1, "190"), latte(1, "230")},
	})
	require.NoError(t, err)
	assert.Len(t, result.Order.Items, 2)
	assert.True(t, d("420").Equal(result.Order.Total))
	assert.Equal(t, int64(42), result.Order.PointsEarned)
}

func TestListByUser(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	for _, price := range []string{"100", "200"} {
		_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{UserID: "user-1", Items: []ItemRequest{latte(1, price)}})
		require.NoError(t, err)
	}

	orders, err := svc.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, d("200").Equal(orders[0].Total), "newest first")

	_, err = svc.ListByUser(ctx, "ghost")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestDrinkIDs_Dedup(t *testing.T) {
	ids := drinkIDs([]ItemRequest{{DrinkID: "b"}, {DrinkID: "a"}, {DrinkID: "b"}})
	sort.Strings(ids)
	assert.Equal(t, []string{"a", "b"}, ids)
}
