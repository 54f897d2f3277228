package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Dedup marks event ids as seen so at-least-once consumers process each
// event exactly once per service.
type Dedup struct {
	Client  *redis.Client
	Service string
}

// MarkOnce returns true the first time an id is seen.
func (d *Dedup) MarkOnce(ctx context.Context, id string) (bool, error) {
	key := fmt.Sprintf(KeyDedup, d.Service, id)
	return d.Client.SetNX(ctx, key, "1", TTLDedup).Result()
}
