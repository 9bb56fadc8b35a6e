// Package cache provides a Redis read-through cache for tracked orders.
package cache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/storefront-checkout/internal/domain/order"
	"github.com/xenking/storefront-checkout/internal/orderjson"
)

const (
	orderKeyPrefix  = "storefront:order:"
	defaultCacheTTL = 5 * time.Minute
)

var _ order.Cache = (*RedisOrderCache)(nil)

// Config holds Redis connection settings.
type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl" default:"5m"`
}

// RedisOrderCache implements order.Cache using Redis.
type RedisOrderCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisClient creates a client for cfg. It does not connect eagerly.
func NewRedisClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisOrderCache creates an order cache on top of client.
func NewRedisOrderCache(client redis.UniversalClient, ttl time.Duration) *RedisOrderCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisOrderCache{client: client, ttl: ttl}
}

// Get returns the cached order, or nil without error on a miss. Undecodable
// entries are deleted.
func (c *RedisOrderCache) Get(ctx context.Context, number string) (*order.Order, error) {
	data, err := c.client.Get(ctx, key(number)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	o, err := orderjson.Unmarshal(data)
	if err != nil {
		if err := c.Delete(ctx, number); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return o, nil
}

// Set stores o under its order number for the configured TTL.
func (c *RedisOrderCache) Set(ctx context.Context, o *order.Order) error {
	if err := c.client.Set(ctx, key(o.Number), orderjson.Marshal(o), c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete evicts the order with the given number.
func (c *RedisOrderCache) Delete(ctx context.Context, number string) error {
	if err := c.client.Del(ctx, key(number)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// Ping checks connectivity; used as a readiness check.
func (c *RedisOrderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func key(number string) string {
	return orderKeyPrefix + number
}
