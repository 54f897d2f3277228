package catalog

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	s := &Service{Store: mem}
	require.NoError(t, s.Seed(context.Background(), []Item{
		{ID: "latte", Name: "Latte", Price: "10", Category: "starbucks"},
		{ID: "mocha", Name: "Mocha Latte", Price: "12", Category: "starbucks"},
		{ID: "donut", Name: "Donut", Price: "8", Addon: "Glaze", AddonPrice: "5", Category: "dunkin"},
	}))
	return s, mem
}

func TestGet(t *testing.T) {
	s, _ := seeded(t)

	it, err := s.Get(context.Background(), "donut")
	require.NoError(t, err)
	assert.Equal(t, "Donut", it.Name)
	assert.True(t, it.HasAddon())

	_, err = s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListSortsByName(t *testing.T) {
	s, _ := seeded(t)

	items, err := s.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Donut", "Latte", "Mocha Latte"},
		[]string{items[0].Name, items[1].Name, items[2].Name})
}

func TestListFiltersCategory(t *testing.T) {
	s, _ := seeded(t)

	items, err := s.List(context.Background(), "dunkin")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "donut", items[0].ID)

	items, err = s.List(context.Background(), "subway")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearch(t *testing.T) {
	s, _ := seeded(t)

	items, err := s.Search(context.Background(), "latte")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = s.Search(context.Background(), "LATTE")
	require.NoError(t, err)
	assert.Len(t, items, 2, "search is case-insensitive")

	items, err = s.Search(context.Background(), "burger")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestWatchReloadsSnapshot(t *testing.T) {
	s, mem := seeded(t)
	ctx := context.Background()

	got := make(chan []Item, 1)
	unsub, err := s.Watch(ctx, mem, func(items []Item) {
		select {
		case got <- items:
		default:
		}
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, s.Seed(ctx, []Item{
		{ID: "bagel", Name: "Bagel", Price: "6", Category: "dunkin"},
	}))

	items := <-got
	assert.Len(t, items, 4)
}

func TestWatchReloadSeesUpdatedItem(t *testing.T) {
	s, mem := seeded(t)
	ctx := context.Background()

	got := make(chan []Item, 4)
	unsub, err := s.Watch(ctx, mem, func(items []Item) { got <- items })
	require.NoError(t, err)
	defer unsub()

	// repricing an existing entry must surface in the next snapshot,
	// never a cached copy of the old one
	require.NoError(t, s.Seed(ctx, []Item{
		{ID: "latte", Name: "Latte", Price: "11", Category: "starbucks"},
	}))

	items := <-got
	for _, it := range items {
		if it.ID == "latte" {
			assert.Equal(t, "11", it.Price)
			return
		}
	}
	t.Fatal("latte missing from snapshot")
}

func TestAddonWithoutPrice(t *testing.T) {
	it := Item{ID: "soup", Name: "Soup", Price: "7", Addon: "Bread"}
	assert.False(t, it.HasAddon())
}
