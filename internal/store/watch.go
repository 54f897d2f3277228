package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-cafe-orders.git/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// RedisWatcher subscribes to the per-collection live channels that PG
// publishes on. Each message carries only the changed key: the consumer is
// expected to reload its whole view from the store.
type RedisWatcher struct {
	Redis *redis.Client
}

var _ Watcher = (*RedisWatcher)(nil)

func (w *RedisWatcher) Watch(ctx context.Context, collection string, fn func(key string)) (Unsubscribe, error) {
	sub := w.Redis.Subscribe(ctx, fmt.Sprintf(redisx.ChanLive, collection))
	// force the SUBSCRIBE out now so a broken connection surfaces here,
	// not inside the goroutine
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		ch := sub.Channel()
		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}
				fn(m.Payload)
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}, nil
}
