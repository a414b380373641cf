package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func cartItem(id, price string, quantity int) domain.CartItem {
	return domain.CartItem{ID: id, ProductID: id, Name: "Item " + id, Price: dec(price), Quantity: quantity}
}

func newTestCart(t *testing.T) (*CartStore, *memoryCartRepo) {
	t.Helper()
	repo := newMemoryCartRepo()
	return NewCartStore(context.Background(), "cart-1", repo, nil), repo
}

func TestCartStore_AddItemMergesQuantities(t *testing.T) {
	store, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, cartItem("1", "10.00", 2)))
	require.NoError(t, store.AddItem(ctx, cartItem("1", "10.00", 3)))

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 5, snapshot.Items[0].Quantity)
}

func TestCartStore_AddItemKeepsDistinctVariants(t *testing.T) {
	store, _ := newTestCart(t)
	ctx := context.Background()

	small := cartItem("1", "10.00", 1)
	small.Variant = &domain.VariantRef{ID: "s", Size: "S"}
	large := cartItem("1", "10.00", 1)
	large.Variant = &domain.VariantRef{ID: "l", Size: "L"}

	require.NoError(t, store.AddItem(ctx, small))
	require.NoError(t, store.AddItem(ctx, large))
	require.NoError(t, store.AddItem(ctx, cartItem("2", "5.00", 1)))

	snapshot := store.Snapshot()
	require.Len(t, snapshot.Items, 3)
	assert.Equal(t, "s", snapshot.Items[0].VariantID())
	assert.Equal(t, "l", snapshot.Items[1].VariantID())
	assert.Equal(t, "2", snapshot.Items[2].ID)
}

func TestCartStore_AddItemRejectsInvalid(t *testing.T) {
	store, repo := newTestCart(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.AddItem(ctx, cartItem("1", "1.00", 0)), domain.ErrInvalidRequest)
	assert.ErrorIs(t, store.AddItem(ctx, cartItem("", "1.00", 1)), domain.ErrInvalidRequest)
	assert.Empty(t, store.Snapshot().Items)
	assert.Zero(t, repo.saves)
}

func TestCartStore_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantLen  int
	}{
		{"sets exactly", 7, 1},
		{"zero removes", 0, 0},
		{"negative removes", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestCart(t)
			ctx := context.Background()
			require.NoError(t, store.AddItem(ctx, cartItem("1", "3.00", 2)))

			store.UpdateQuantity(ctx, "1", tt.quantity)

			items := store.Snapshot().Items
			require.Len(t, items, tt.wantLen)
			if tt.wantLen == 1 {
				assert.Equal(t, tt.quantity, items[0].Quantity)
			}
		})
	}
}

func TestCartStore_UpdateQuantityMatchesRemove(t *testing.T) {
	ctx := context.Background()
	viaUpdate, _ := newTestCart(t)
	viaRemove, _ := newTestCart(t)
	for _, s := range []*CartStore{viaUpdate, viaRemove} {
		require.NoError(t, s.AddItem(ctx, cartItem("1", "3.00", 2)))
		require.NoError(t, s.AddItem(ctx, cartItem("2", "4.00", 1)))
	}

	viaUpdate.UpdateQuantity(ctx, "1", 0)
	viaRemove.RemoveItem(ctx, "1")

	assert.Equal(t, viaRemove.Snapshot(), viaUpdate.Snapshot())
}

func TestCartStore_AbsentIDsAreNoOps(t *testing.T) {
	store, repo := newTestCart(t)
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, cartItem("1", "3.00", 2)))
	saves := repo.saves

	notified := 0
	store.Subscribe(func(domain.CartView) { notified++ })

	store.RemoveItem(ctx, "missing")
	store.UpdateQuantity(ctx, "missing", 4)
	store.UpdateQuantity(ctx, "missing", 0)

	assert.Len(t, store.Snapshot().Items, 1)
	assert.Equal(t, saves, repo.saves)
	assert.Zero(t, notified)
}

func TestCartStore_ClearCart(t *testing.T) {
	store, repo := newTestCart(t)
	ctx := context.Background()
	require.NoError(t, store.AddItem(ctx, cartItem("1", "3.00", 2)))

	store.ClearCart(ctx)

	assert.Empty(t, store.Snapshot().Items)
	assert.Zero(t, store.ItemCount())
	assert.Empty(t, repo.snapshots["cart-1"].Items)
}

func TestCartStore_ItemCountAndLookup(t *testing.T) {
	store, _ := newTestCart(t)
	ctx := context.Background()
	withVariant := cartItem("1-a", "3.00", 2)
	withVariant.ProductID = "1"
	withVariant.Variant = &domain.VariantRef{ID: "a"}
	require.NoError(t, store.AddItem(ctx, withVariant))
	require.NoError(t, store.AddItem(ctx, cartItem("2", "1.00", 3)))

	assert.Equal(t, 5, store.ItemCount())

	item, ok := store.GetItem("1-a")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	_, ok = store.GetItem("1")
	assert.False(t, ok)

	assert.True(t, store.IsInCart("1", ""))
	assert.True(t, store.IsInCart("1", "a"))
	assert.False(t, store.IsInCart("1", "b"))
	assert.True(t, store.IsInCart("2", ""))
	assert.False(t, store.IsInCart("3", ""))
}

func TestCartStore_TotalPriceIsExact(t *testing.T) {
	store, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, cartItem("a", "0.1", 1)))
	require.NoError(t, store.AddItem(ctx, cartItem("b", "0.2", 1)))

	assertDecimal(t, "0.3", store.TotalPrice())
}

func TestCartStore_Totals(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		total    string
		subtotal string
		shipping string
		tax      string
		grand    string
	}{
		{"above free shipping", "19.99", 3, "59.97", "59.97", "0", "4.80", "64.77"},
		{"single cents", "0.01", 3, "0.03", "0.03", "4.99", "0.00", "5.02"},
		{"sub-cent precision", "9.999999", 1, "9.999999", "10.00", "4.99", "0.80", "15.79"},
		{"just below threshold", "49.99", 1, "49.99", "49.99", "4.99", "4.00", "58.98"},
		{"exactly at threshold", "25.00", 2, "50.00", "50.00", "0", "4.00", "54.00"},
		{"rounds up to threshold", "49.995", 1, "49.995", "50.00", "0", "4.00", "54.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestCart(t)
			require.NoError(t, store.AddItem(context.Background(), cartItem("1", tt.price, tt.quantity)))

			totals := store.Totals()

			assertDecimal(t, tt.total, store.TotalPrice())
			assertDecimal(t, tt.subtotal, totals.Subtotal)
			assertDecimal(t, tt.shipping, totals.Shipping)
			assertDecimal(t, tt.tax, totals.Tax)
			assertDecimal(t, tt.grand, totals.Total)
		})
	}
}

func TestCartStore_MixedPrecisionCart(t *testing.T) {
	store, _ := newTestCart(t)
	ctx := context.Background()

	require.NoError(t, store.AddItem(ctx, cartItem("a", "19.99", 1)))
	require.NoError(t, store.AddItem(ctx, cartItem("b", "0.01", 1)))
	require.NoError(t, store.AddItem(ctx, cartItem("c", "9.999999", 1)))

	assertDecimal(t, "30.009999", store.TotalPrice())
	assertDecimal(t, "30.01", store.Totals().Subtotal)
}

func TestCartStore_EmptyTotals(t *testing.T) {
	store, _ := newTestCart(t)

	totals := store.Totals()

	assertDecimal(t, "0", totals.Subtotal)
	assertDecimal(t, "4.99", totals.Shipping)
	assertDecimal(t, "0", totals.Tax)
}

func TestCartStore_PersistsAndRehydrates(t *testing.T) {
	repo := newMemoryCartRepo()
	ctx := context.Background()
	store := NewCartStore(ctx, "cart-1", repo, nil)

	item := cartItem("1-s", "19.99", 2)
	item.Variant = &domain.VariantRef{ID: "s", Name: "Small", Size: "S"}
	item.ProductHandle = "tee"
	require.NoError(t, store.AddItem(ctx, item))
	store.SetCheckoutID(ctx, "chk-1")

	rehydrated := NewCartStore(ctx, "cart-1", repo, nil)

	snapshot := rehydrated.Snapshot()
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, "chk-1", snapshot.CheckoutID)
	assert.Equal(t, item.Variant, snapshot.Items[0].Variant)
	assert.Equal(t, "tee", snapshot.Items[0].ProductHandle)
	assertDecimal(t, "39.98", rehydrated.TotalPrice())
}

func TestCartStore_RehydrateFailuresStartEmpty(t *testing.T) {
	repo := newMemoryCartRepo()
	repo.loadErr = errors.New("corrupt snapshot")

	store := NewCartStore(context.Background(), "cart-1", repo, nil)

	assert.Empty(t, store.Snapshot().Items)
	assert.NotNil(t, store.Snapshot().Items)
}

func TestCartStore_RehydrateDropsInvalidLines(t *testing.T) {
	repo := newMemoryCartRepo()
	repo.snapshots["cart-1"] = domain.CartSnapshot{Items: []domain.CartItem{
		cartItem("1", "1.00", 1),
		cartItem("2", "1.00", 0),
		cartItem("", "1.00", 2),
	}}

	store := NewCartStore(context.Background(), "cart-1", repo, nil)

	require.Len(t, store.Snapshot().Items, 1)
	assert.Equal(t, "1", store.Snapshot().Items[0].ID)
}

func TestCartStore_PersistenceFailureDoesNotBlock(t *testing.T) {
	store, repo := newTestCart(t)
	repo.saveErr = errors.New("disk full")

	require.NoError(t, store.AddItem(context.Background(), cartItem("1", "2.00", 1)))

	assert.Equal(t, 1, store.ItemCount())
	assert.Equal(t, 1, repo.saves)
}

func TestCartStore_Subscribe(t *testing.T) {
	store, _ := newTestCart(t)
	ctx := context.Background()

	var counts []int
	unsubscribe := store.Subscribe(func(view domain.CartView) {
		assert.Equal(t, "cart-1", view.ID)
		counts = append(counts, view.ItemCount)
	})

	require.NoError(t, store.AddItem(ctx, cartItem("1", "2.00", 1)))
	require.NoError(t, store.AddItem(ctx, cartItem("1", "2.00", 2)))
	store.UpdateQuantity(ctx, "1", 10)
	unsubscribe()
	store.ClearCart(ctx)

	assert.Equal(t, []int{1, 3, 10}, counts)
}

func TestCartStore_SubscriberCanReadStore(t *testing.T) {
	store, _ := newTestCart(t)

	var seen int
	store.Subscribe(func(domain.CartView) { seen = store.ItemCount() })

	require.NoError(t, store.AddItem(context.Background(), cartItem("1", "2.00", 4)))

	assert.Equal(t, 4, seen)
}

func TestCartStore_SubscriberReadDuringConcurrentMutation(t *testing.T) {
	store, _ := newTestCart(t)
	ctx := context.Background()

	var (
		mu    sync.Mutex
		calls int
		seen  []int
	)
	store.Subscribe(func(domain.CartView) {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			time.Sleep(100 * time.Millisecond)
		}
		count := store.ItemCount()
		mu.Lock()
		seen = append(seen, count)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AddItem(ctx, cartItem("1", "2.00", 1)))
		}()
		go func() {
			defer wg.Done()
			time.Sleep(20 * time.Millisecond)
			assert.NoError(t, store.AddItem(ctx, cartItem("2", "3.00", 1)))
		}()
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("mutations did not complete while a subscriber was reading")
	}

	assert.Equal(t, 2, store.ItemCount())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, seen)
}

func TestCartStore_SnapshotIsACopy(t *testing.T) {
	store, _ := newTestCart(t)
	item := cartItem("1", "2.00", 1)
	item.Variant = &domain.VariantRef{ID: "v"}
	require.NoError(t, store.AddItem(context.Background(), item))

	snapshot := store.Snapshot()
	snapshot.Items[0].Quantity = 99
	snapshot.Items[0].Variant.ID = "changed"

	got, _ := store.GetItem("1")
	assert.Equal(t, 1, got.Quantity)
	assert.Equal(t, "v", got.Variant.ID)
}

func TestCartStore_ConcurrentAdds(t *testing.T) {
	store, repo := newTestCart(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AddItem(ctx, cartItem("1", "1.50", 2)))
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, store.ItemCount())
	assertDecimal(t, "150", store.TotalPrice())
	assert.Equal(t, 100, repo.snapshots["cart-1"].Items[0].Quantity)
}

func TestNewCartItem(t *testing.T) {
	product := &domain.Product{
		ID:       "1",
		Name:     "Tee",
		Price:    dec("29.99"),
		Images:   []string{"a.jpg", "b.jpg"},
		Category: "Clothing",
		Handle:   "tee",
		Variants: []domain.Variant{
			{ID: "1-4", Name: "XL", Price: dec("32.99"), Size: "XL", InStock: true},
			{ID: "1-5", Name: "Free", Price: decimal.Zero, Color: "Red", InStock: true},
		},
	}

	plain := NewCartItem(product, nil, 2)
	assert.Equal(t, "1", plain.ID)
	assert.Equal(t, "Tee", plain.Name)
	assertDecimal(t, "29.99", plain.Price)
	assert.Equal(t, "a.jpg", plain.Image)
	assert.Equal(t, "tee", plain.ProductHandle)
	assert.Nil(t, plain.Variant)

	xl := NewCartItem(product, &product.Variants[0], 1)
	assert.Equal(t, "1-1-4", xl.ID)
	assert.Equal(t, "Tee - XL", xl.Name)
	assertDecimal(t, "32.99", xl.Price)
	assert.Equal(t, &domain.VariantRef{ID: "1-4", Name: "XL", Size: "XL"}, xl.Variant)

	free := NewCartItem(product, &product.Variants[1], 1)
	assertDecimal(t, "29.99", free.Price)
	assert.Equal(t, "Red", free.Variant.Color)
}
