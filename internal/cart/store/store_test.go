package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliapoganyuko/advanced-mentoring/internal/cart/domain"
)

// Both local backends must satisfy the same contract; the mongo backend
// runs the same assertions in mongo_test.go behind a container.
func testStores(t *testing.T, run func(t *testing.T, s CartStore)) {
	t.Run("memory", func(t *testing.T) {
		run(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "carts.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		run(t, s)
	})
}

func testCart(items ...domain.CartItem) *domain.Cart {
	return &domain.Cart{ID: uuid.NewString(), Items: items}
}

func testItem(id int, name string, price float64, quantity int) domain.CartItem {
	return domain.CartItem{ID: id, Name: name, Price: price, Quantity: quantity}
}

func TestStore_GetMissing(t *testing.T) {
	testStores(t, func(t *testing.T, s CartStore) {
		cart, err := s.Get(context.Background(), uuid.NewString())
		assert.ErrorIs(t, err, ErrCartNotFound)
		assert.Nil(t, cart)
	})
}

func TestStore_PutThenGet(t *testing.T) {
	testStores(t, func(t *testing.T, s CartStore) {
		ctx := context.Background()
		cart := testCart(testItem(1, "Widget", 9.99, 2))

		require.NoError(t, s.Put(ctx, cart))
		assert.EqualValues(t, 1, cart.Version)

		got, err := s.Get(ctx, cart.ID)
		require.NoError(t, err)
		assert.Equal(t, cart.ID, got.ID)
		assert.EqualValues(t, 1, got.Version)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "Widget", got.Items[0].Name)
		assert.Equal(t, 9.99, got.Items[0].Price)
		assert.Equal(t, 2, got.Items[0].Quantity)
	})
}

func TestStore_PutReplaces(t *testing.T) {
	testStores(t, func(t *testing.T, s CartStore) {
		ctx := context.Background()
		cart := testCart(testItem(1, "Widget", 9.99, 2))
		require.NoError(t, s.Put(ctx, cart))

		cart.Items = append(cart.Items, testItem(2, "Gadget", 4.50, 1))
		require.NoError(t, s.Put(ctx, cart))
		assert.EqualValues(t, 2, cart.Version)

		got, err := s.Get(ctx, cart.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
	})
}

func TestStore_PutInsertConflict(t *testing.T) {
	testStores(t, func(t *testing.T, s CartStore) {
		ctx := context.Background()
		cart := testCart(testItem(1, "Widget", 9.99, 2))
		require.NoError(t, s.Put(ctx, cart))

		dup := &domain.Cart{ID: cart.ID, Items: cart.Items}
		err := s.Put(ctx, dup)
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.Zero(t, dup.Version)
	})
}

func TestStore_PutStaleVersionConflict(t *testing.T) {
	testStores(t, func(t *testing.T, s CartStore) {
		ctx := context.Background()
		cart := testCart(testItem(1, "Widget", 9.99, 2))
		require.NoError(t, s.Put(ctx, cart))

		// Two readers load version 1; the first write wins, the second
		// must be told its snapshot is stale.
		first, err := s.Get(ctx, cart.ID)
		require.NoError(t, err)
		second, err := s.Get(ctx, cart.ID)
		require.NoError(t, err)

		first.Items = append(first.Items, testItem(2, "Gadget", 4.50, 1))
		require.NoError(t, s.Put(ctx, first))

		second.Items = append(second.Items, testItem(3, "Gizmo", 1.25, 1))
		assert.ErrorIs(t, s.Put(ctx, second), ErrVersionConflict)

		got, err := s.Get(ctx, cart.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
	})
}

func TestStore_ScanAllCarts(t *testing.T) {
	testStores(t, func(t *testing.T, s CartStore) {
		ctx := context.Background()
		want := map[string]bool{}
		for i := 0; i < 5; i++ {
			cart := testCart(testItem(i+1, "Item", 1, 1))
			require.NoError(t, s.Put(ctx, cart))
			want[cart.ID] = false
		}

		cur, err := s.Scan(ctx)
		require.NoError(t, err)
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			cart := cur.Cart()
			_, ok := want[cart.ID]
			require.True(t, ok, "unexpected cart %s", cart.ID)
			want[cart.ID] = true
		}
		require.NoError(t, cur.Err())

		for id, seen := range want {
			assert.True(t, seen, "cart %s missing from scan", id)
		}
	})
}

func TestStore_ScanEmpty(t *testing.T) {
	testStores(t, func(t *testing.T, s CartStore) {
		ctx := context.Background()
		cur, err := s.Scan(ctx)
		require.NoError(t, err)
		defer cur.Close(ctx)

		assert.False(t, cur.Next(ctx))
		assert.NoError(t, cur.Err())
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "carts.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	cart := testCart(testItem(1, "Widget", 9.99, 2))
	require.NoError(t, s.Put(ctx, cart))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, cart.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Widget", got.Items[0].Name)
}
