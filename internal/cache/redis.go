package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"api_pos/internal/sales"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const productsKey = "pos:products"

// RedisCache holds the Redis client connection and implements
// sales.ProductCache with a single JSON snapshot of the product list.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr, password string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pong, err := client.Ping(pingCtx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("redis connected", zap.String("addr", addr), zap.String("ping", pong))

	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

// GetProducts returns the cached product list, if any.
func (c *RedisCache) GetProducts(ctx context.Context) ([]sales.Product, bool, error) {
	raw, err := c.client.Get(ctx, productsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read product cache: %w", err)
	}

	var products []sales.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("failed to decode product cache: %w", err)
	}
	return products, true, nil
}

// SetProducts stores the product list snapshot.
func (c *RedisCache) SetProducts(ctx context.Context, products []sales.Product) error {
	payload, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode product cache: %w", err)
	}
	if err := c.client.Set(ctx, productsKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write product cache: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, productsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.logger.Info("redis connection closed")
	return err
}
