package cache

import (
	"context"
	"testing"
	"time"

	"api_pos/internal/sales"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), mr.Addr(), "", time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, ok, err := c.GetProducts(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	products := []sales.Product{
		{ID: 1, Name: "Widget", UnitPrice: decimal.RequireFromString("9.99"), QuantityOnHand: 7},
	}
	require.NoError(t, c.SetProducts(ctx, products))
	assert.Equal(t, time.Minute, mr.TTL(productsKey))

	got, ok, err := c.GetProducts(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Widget", got[0].Name)
	assert.True(t, products[0].UnitPrice.Equal(got[0].UnitPrice))

	require.NoError(t, c.Invalidate(ctx))
	_, ok, err = c.GetProducts(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Expires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.SetProducts(ctx, []sales.Product{{ID: 1, Name: "Widget"}}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.GetProducts(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_WithService(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	svc := sales.NewService(sales.NewLocalStorage(), zaptest.NewLogger(t), sales.WithCache(c))

	_, err := svc.UpsertProduct(ctx, "Widget", "1.50", "4")
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.True(t, mr.Exists(productsKey))

	_, err = svc.SellUnits(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, mr.Exists(productsKey), "sales invalidate the snapshot")

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, products[0].QuantityOnHand)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "", "", time.Minute, nil)
	require.Error(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisCache(context.Background(), addr, "", time.Minute, nil)
	require.Error(t, err)
}
