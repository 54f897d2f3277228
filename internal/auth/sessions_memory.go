package auth

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
)

// MemorySessions backs tests and local runs without Redis. TTLs are not
// enforced; token expiry is already covered by the JWT itself.
type MemorySessions struct {
	mu       sync.Mutex
	sessions map[string]string // jti -> uid
	watchers map[string][]func(bool)
}

var _ Sessions = (*MemorySessions)(nil)

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{
		sessions: map[string]string{},
		watchers: map[string][]func(bool){},
	}
}

func (m *MemorySessions) Put(ctx context.Context, jti, uid string, ttl time.Duration) error {
	m.mu.Lock()
	m.sessions[jti] = uid
	m.mu.Unlock()
	return nil
}

func (m *MemorySessions) Delete(ctx context.Context, jti string) error {
	m.mu.Lock()
	delete(m.sessions, jti)
	m.mu.Unlock()
	return nil
}

func (m *MemorySessions) Active(ctx context.Context, jti string) (bool, error) {
	m.mu.Lock()
	_, ok := m.sessions[jti]
	m.mu.Unlock()
	return ok, nil
}

func (m *MemorySessions) Announce(ctx context.Context, uid string, signedIn bool) error {
	m.mu.Lock()
	fns := append(([]func(bool))(nil), m.watchers[uid]...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(signedIn)
	}
	return nil
}

func (m *MemorySessions) WatchUser(ctx context.Context, uid string, fn func(signedIn bool)) (store.Unsubscribe, error) {
	m.mu.Lock()
	m.watchers[uid] = append(m.watchers[uid], fn)
	idx := len(m.watchers[uid]) - 1
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.watchers[uid][idx] = func(bool) {} // detach, keep indexes stable
			m.mu.Unlock()
		})
	}, nil
}
