package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ssdl-lang/ssdlc/internal/port"
)

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Cache implements port.IRCache on Redis. Keys are descriptor hashes, so an
// entry can never go stale; the TTL only bounds memory.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, hash string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, hash string, ir []byte, ttl time.Duration) error {
	return c.client.Set(ctx, cacheKey(hash), ir, ttl).Err()
}

func cacheKey(hash string) string {
	return "ssdlc:ir:" + hash
}

var _ port.IRCache = (*Cache)(nil)
