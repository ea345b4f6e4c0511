package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/intekaih/toystore-app-sub001/internal/usecase"
)

// RedisCache keeps a short-lived copy of order status for the read
// path; the orders table stays authoritative. The value carries the
// owner key so a hit can be authorized without a table read.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) SetStatus(ctx context.Context, orderID, ownerKey, status string) error {
	return r.rdb.Set(ctx, "checkout:order:status:"+orderID, ownerKey+"|"+status, r.ttl).Err()
}

func (r *RedisCache) GetStatus(ctx context.Context, orderID string) (string, string, bool, error) {
	val, err := r.rdb.Get(ctx, "checkout:order:status:"+orderID).Result()
	if err == redis.Nil {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	ownerKey, status, ok := strings.Cut(val, "|")
	if !ok {
		return "", "", false, nil
	}
	return ownerKey, status, true, nil
}

var _ usecase.OrderCache = (*RedisCache)(nil)
