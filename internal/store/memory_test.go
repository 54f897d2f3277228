package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func TestMemory_GetUpsert(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	var out doc
	assert.ErrorIs(t, mem.Get(ctx, CollUserCart, "u1", &out), ErrNotFound)

	require.NoError(t, mem.Upsert(ctx, CollUserCart, "u1", "u1", doc{Name: "a", N: 1}))
	require.NoError(t, mem.Get(ctx, CollUserCart, "u1", &out))
	assert.Equal(t, doc{Name: "a", N: 1}, out)

	// upsert replaces
	require.NoError(t, mem.Upsert(ctx, CollUserCart, "u1", "u1", doc{Name: "b", N: 2}))
	require.NoError(t, mem.Get(ctx, CollUserCart, "u1", &out))
	assert.Equal(t, "b", out.Name)
}

func TestMemory_UpdateRequiresExisting(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	err := mem.Update(ctx, CollUserOrders, "o1", "u1", doc{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mem.Upsert(ctx, CollUserOrders, "o1", "u1", doc{N: 1}))
	require.NoError(t, mem.Update(ctx, CollUserOrders, "o1", "u1", doc{N: 2}))

	var out doc
	require.NoError(t, mem.Get(ctx, CollUserOrders, "o1", &out))
	assert.Equal(t, 2, out.N)
}

func TestMemory_Delete(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Upsert(ctx, CollUserCart, "u1", "u1", doc{}))
	require.NoError(t, mem.Delete(ctx, CollUserCart, "u1"))

	var out doc
	assert.ErrorIs(t, mem.Get(ctx, CollUserCart, "u1", &out), ErrNotFound)

	// deleting a missing document is not an error
	assert.NoError(t, mem.Delete(ctx, CollUserCart, "u1"))
}

func TestMemory_ListOwned(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Upsert(ctx, CollUserOrders, "o1", "u1", doc{N: 1}))
	require.NoError(t, mem.Upsert(ctx, CollUserOrders, "o2", "u1", doc{N: 2}))
	require.NoError(t, mem.Upsert(ctx, CollUserOrders, "o3", "u2", doc{N: 3}))

	docs, err := mem.ListOwned(ctx, CollUserOrders, "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	docs, err = mem.ListOwned(ctx, CollUserOrders, "nobody")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemory_Watch(t *testing.T) {
	mem := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys := make(chan string, 8)
	unsub, err := mem.Watch(ctx, CollUserCart, func(key string) { keys <- key })
	require.NoError(t, err)

	require.NoError(t, mem.Upsert(ctx, CollUserCart, "u1", "u1", doc{}))
	select {
	case k := <-keys:
		assert.Equal(t, "u1", k)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
	}

	// other collections stay silent
	require.NoError(t, mem.Upsert(ctx, CollUserOrders, "o1", "u1", doc{}))
	select {
	case k := <-keys:
		t.Fatalf("unexpected notification %q", k)
	case <-time.After(50 * time.Millisecond):
	}

	// unsubscribing stops delivery, and is safe to call twice
	unsub()
	unsub()
	require.NoError(t, mem.Upsert(ctx, CollUserCart, "u2", "u2", doc{}))
	select {
	case k := <-keys:
		t.Fatalf("notification after unsubscribe: %q", k)
	case <-time.After(50 * time.Millisecond):
	}
}
