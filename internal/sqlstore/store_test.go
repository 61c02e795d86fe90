package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"api_pos/internal/auth"
	"api_pos/internal/database"
	"api_pos/internal/sales"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	client, err := database.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "pos.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Migrate(ctx))

	return New(client)
}

func TestStore_Inventory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Upsert(ctx, "Widget", decimal.RequireFromString("9.99"), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, decimal.RequireFromString("9.99").Equal(created.UnitPrice))

	updated, err := store.Upsert(ctx, "Widget", decimal.RequireFromString("8.50"), 5)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert keyed by name keeps the ID")
	assert.Equal(t, 5, updated.QuantityOnHand)

	byName, err := store.FindByName(ctx, "Widget")
	require.NoError(t, err)
	assert.Equal(t, *updated, *byName)

	_, err = store.FindByID(ctx, 99)
	require.ErrorIs(t, err, sales.ErrProductNotFound)

	p, err := store.AdjustQuantity(ctx, 1, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, p.QuantityOnHand)

	_, err = store.AdjustQuantity(ctx, 1, -1)
	require.ErrorIs(t, err, sales.ErrInsufficientStock)

	_, err = store.AdjustQuantity(ctx, 99, 1)
	require.ErrorIs(t, err, sales.ErrProductNotFound)

	gadget, err := store.Upsert(ctx, "Gadget", decimal.NewFromInt(3), 1)
	require.NoError(t, err)
	products, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Widget", products[0].Name)
	assert.Equal(t, "Gadget", products[1].Name)

	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, products, again)

	require.NoError(t, store.Delete(ctx, gadget.ID))
	require.ErrorIs(t, store.Delete(ctx, gadget.ID), sales.ErrProductNotFound)

	fresh, err := store.Upsert(ctx, "Gadget", decimal.NewFromInt(3), 1)
	require.NoError(t, err)
	assert.Greater(t, fresh.ID, gadget.ID, "IDs are never reused")
}

func TestStore_Ledger(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Upsert(ctx, "Widget", decimal.RequireFromString("9.99"), 10)
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	first, err := store.Append(ctx, sales.Sale{ProductID: 1, ProductName: "Widget", QuantitySold: 1, TotalPrice: decimal.RequireFromString("9.99"), SoldAt: at})
	require.NoError(t, err)
	second, err := store.Append(ctx, sales.Sale{ProductID: 1, ProductName: "Widget", QuantitySold: 3, TotalPrice: decimal.RequireFromString("29.97"), SoldAt: at.Add(time.Second)})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	views, err := store.ListWithProductNames(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].ID, "newest first")
	assert.Equal(t, "Widget", views[0].ProductName)
	assert.True(t, decimal.RequireFromString("29.97").Equal(views[0].TotalPrice))
	assert.True(t, at.Add(time.Second).Equal(views[0].SoldAt))

	n, err := store.CountByProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.ErrorIs(t, store.Delete(ctx, 1), sales.ErrProductInUse, "foreign key keeps sold products")
}

func TestStore_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.Upsert(ctx, "Widget", decimal.NewFromInt(1), 10)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.InTx(ctx, func(tx sales.Tx) error {
		if _, err := tx.AdjustQuantity(ctx, 1, -4); err != nil {
			return err
		}
		if _, err := tx.Append(ctx, sales.Sale{ProductID: 1, ProductName: "Widget", QuantitySold: 4, TotalPrice: decimal.NewFromInt(4), SoldAt: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := store.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.QuantityOnHand)

	views, err := store.ListWithProductNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestStore_WithSalesService(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := sales.NewService(store, zaptest.NewLogger(t))

	_, err := svc.UpsertProduct(ctx, "Widget", "9.99", "10")
	require.NoError(t, err)

	sale, err := svc.SellUnits(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("29.97").Equal(sale.TotalPrice))

	_, err = svc.SellUnits(ctx, 1, 100)
	require.ErrorIs(t, err, sales.ErrInsufficientStock)

	_, err = svc.SellUnits(ctx, 999, 1)
	require.ErrorIs(t, err, sales.ErrProductNotFound)

	p, err := svc.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, p.QuantityOnHand)

	history, metadata, err := svc.ListSales(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 3, metadata.UnitsSold)

	require.ErrorIs(t, svc.DeleteProduct(ctx, 1), sales.ErrProductInUse)
}

func TestStore_RejectsOutOfRangeValues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := sales.NewService(store, zaptest.NewLogger(t))

	for _, price := range []string{"1e400", "1e10", "0.005"} {
		_, err := svc.UpsertProduct(ctx, "Big", price, "1")
		require.ErrorIs(t, err, sales.ErrInvalidInput, price)
	}

	_, err := svc.UpsertProduct(ctx, "Widget", "9999999999.99", "2147483640")
	require.NoError(t, err)

	_, err = store.AdjustQuantity(ctx, 1, 8)
	require.ErrorIs(t, err, sales.ErrInvalidInput)
	_, err = store.AdjustQuantity(ctx, 1, 1<<40)
	require.ErrorIs(t, err, sales.ErrInvalidInput)

	p, err := store.AdjustQuantity(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, sales.MaxQuantity, p.QuantityOnHand)
	assert.Equal(t, "9999999999.99", p.UnitPrice.StringFixed(2))

	_, err = store.AdjustQuantity(ctx, 1, -sales.MaxQuantity-1)
	require.ErrorIs(t, err, sales.ErrInvalidInput)
	_, err = store.AdjustQuantity(ctx, 999, 1)
	require.ErrorIs(t, err, sales.ErrProductNotFound)
}

func TestStore_ConcurrentSales(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	svc := sales.NewService(store, zaptest.NewLogger(t))
	_, err := svc.UpsertProduct(ctx, "Widget", "1", "10")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SellUnits(ctx, 1, 6)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, sales.ErrInsufficientStock)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	p, err := store.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, p.QuantityOnHand)
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	user, err := store.CreateUser(ctx, auth.User{Username: "ana", PasswordHash: "hash", Role: auth.RoleCashier})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = store.CreateUser(ctx, auth.User{Username: "ana", PasswordHash: "x", Role: auth.RoleAdmin})
	require.ErrorIs(t, err, auth.ErrDuplicateUser)

	found, err := store.FindUser(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "hash", found.PasswordHash)
	assert.Equal(t, auth.RoleCashier, found.Role)

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)

	require.NoError(t, store.DeleteUser(ctx, "ana"))
	require.ErrorIs(t, store.DeleteUser(ctx, "ana"), auth.ErrUserNotFound)
	_, err = store.FindUser(ctx, "ana")
	require.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestRebind(t *testing.T) {
	pg := &conn{dialect: database.Postgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &conn{dialect: database.SQLite}
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}
