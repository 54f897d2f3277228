package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/redisx"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/redis/go-redis/v9"
)

// RedisSessions keeps sess:{jti} -> uid with the session TTL and announces
// state changes on the per-user sessions channel.
type RedisSessions struct {
	Redis *redis.Client
}

var _ Sessions = (*RedisSessions)(nil)

func (r *RedisSessions) Put(ctx context.Context, jti, uid string, ttl time.Duration) error {
	return r.Redis.Set(ctx, fmt.Sprintf(redisx.KeySession, jti), uid, ttl).Err()
}

func (r *RedisSessions) Delete(ctx context.Context, jti string) error {
	return r.Redis.Del(ctx, fmt.Sprintf(redisx.KeySession, jti)).Err()
}

func (r *RedisSessions) Active(ctx context.Context, jti string) (bool, error) {
	return redisx.Exists(ctx, r.Redis, fmt.Sprintf(redisx.KeySession, jti))
}

func (r *RedisSessions) Announce(ctx context.Context, uid string, signedIn bool) error {
	state := "out"
	if signedIn {
		state = "in"
	}
	return r.Redis.Publish(ctx, fmt.Sprintf(redisx.ChanSession, uid), state).Err()
}

func (r *RedisSessions) WatchUser(ctx context.Context, uid string, fn func(signedIn bool)) (store.Unsubscribe, error) {
	sub := r.Redis.Subscribe(ctx, fmt.Sprintf(redisx.ChanSession, uid))
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
				fn(m.Payload == "in")
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
