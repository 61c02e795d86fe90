package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_InTxRollback(t *testing.T) {
	ctx := context.Background()
	storage := NewLocalStorage()
	_, err := storage.Upsert(ctx, "Widget", decimal.NewFromInt(2), 10)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = storage.InTx(ctx, func(tx Tx) error {
		if _, err := tx.AdjustQuantity(ctx, 1, -4); err != nil {
			return err
		}
		if _, err := tx.Upsert(ctx, "Gadget", decimal.NewFromInt(1), 1); err != nil {
			return err
		}
		if _, err := tx.Upsert(ctx, "Widget", decimal.NewFromInt(9), 99); err != nil {
			return err
		}
		if _, err := tx.Append(ctx, Sale{ProductID: 1, QuantitySold: 4}); err != nil {
			return err
		}
		if err := tx.Delete(ctx, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := storage.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.QuantityOnHand)
	assert.True(t, decimal.NewFromInt(2).Equal(p.UnitPrice))

	_, err = storage.FindByName(ctx, "Gadget")
	require.ErrorIs(t, err, ErrProductNotFound)

	sales, err := storage.ListWithProductNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)

	// The rolled back insert still consumed its ID.
	g, err := storage.Upsert(ctx, "Gadget", decimal.NewFromInt(1), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), g.ID)
}

func TestLocalStorage_InTxRollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	storage := NewLocalStorage()
	_, err := storage.Upsert(ctx, "Widget", decimal.NewFromInt(2), 10)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = storage.InTx(ctx, func(tx Tx) error {
			_, _ = tx.AdjustQuantity(ctx, 1, -10)
			panic("unexpected")
		})
	})

	p, err := storage.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.QuantityOnHand)
}

func TestLocalStorage_AdjustQuantity(t *testing.T) {
	ctx := context.Background()
	storage := NewLocalStorage()
	_, err := storage.Upsert(ctx, "Widget", decimal.NewFromInt(2), 3)
	require.NoError(t, err)

	_, err = storage.AdjustQuantity(ctx, 1, -4)
	require.ErrorIs(t, err, ErrInsufficientStock)

	_, err = storage.AdjustQuantity(ctx, 7, 1)
	require.ErrorIs(t, err, ErrProductNotFound)

	p, err := storage.AdjustQuantity(ctx, 1, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, p.QuantityOnHand)
}

func TestLocalStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	storage := NewLocalStorage()
	p, err := storage.Upsert(ctx, "Widget", decimal.NewFromInt(2), 3)
	require.NoError(t, err)

	p.QuantityOnHand = 1000
	stored, err := storage.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.QuantityOnHand)
}

func TestLocalStorage_ListWithProductNames(t *testing.T) {
	ctx := context.Background()
	storage := NewLocalStorage()
	_, err := storage.Upsert(ctx, "Widget", decimal.NewFromInt(2), 3)
	require.NoError(t, err)

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_, err = storage.Append(ctx, Sale{ProductID: 1, ProductName: "Widget", QuantitySold: 1, SoldAt: at})
	require.NoError(t, err)
	_, err = storage.Append(ctx, Sale{ProductID: 5, ProductName: "Gone", QuantitySold: 1, SoldAt: at})
	require.NoError(t, err)
	_, err = storage.Append(ctx, Sale{ProductID: 6, QuantitySold: 1, SoldAt: at.Add(-time.Hour)})
	require.NoError(t, err)

	views, err := storage.ListWithProductNames(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Gone", views[0].ProductName, "same timestamp ordered by ID descending")
	assert.Equal(t, "Widget", views[1].ProductName)
	assert.Equal(t, DeletedProductName, views[2].ProductName)

	n, err := storage.CountByProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
