package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/redisx"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/redis/go-redis/v9"
)

// Item is one FoodData document. Prices are kept textual because that is how
// the legacy catalog stores them; pricing coerces them at computation time.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Addon       string `json:"addon,omitempty"`
	AddonPrice  string `json:"addon_price,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Restaurant  string `json:"restaurant,omitempty"`
}

// HasAddon reports whether the entry defines a priced add-on. An addon with
// an empty price field does not count toward totals.
func (it Item) HasAddon() bool { return it.AddonPrice != "" }

// catalog documents all share one owner so ListOwned returns the full menu
const catalogOwner = "catalog"

type Service struct {
	Store store.Store
	Redis *redis.Client // snapshot cache; nil disables caching
}

func (s *Service) Get(ctx context.Context, id string) (Item, error) {
	var it Item
	err := s.Store.Get(ctx, store.CollFoodData, id, &it)
	return it, err
}

// List returns the catalog, optionally filtered to one category, sorted by
// name. Serves a cached snapshot when one is fresh.
func (s *Service) List(ctx context.Context, category string) ([]Item, error) {
	cacheKey := fmt.Sprintf(redisx.KeyMenuCache, cacheCategory(category))
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil && raw != "" {
			var items []Item
			if err := json.Unmarshal([]byte(raw), &items); err == nil {
				return items, nil
			}
		}
	}

	items, err := s.load(ctx, category)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, cacheKey, items)
	return items, nil
}

// load reads the catalog straight from the store, never the cache.
func (s *Service) load(ctx context.Context, category string) ([]Item, error) {
	docs, err := s.Store.ListOwned(ctx, store.CollFoodData, catalogOwner)
	if err != nil {
		return nil, err
	}
	var items []Item
	for _, raw := range docs {
		var it Item
		if err := json.Unmarshal(raw, &it); err != nil {
			log.Printf("catalog: skipping malformed document: %v", err)
			continue
		}
		if category != "" && it.Category != category {
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *Service) fillCache(ctx context.Context, cacheKey string, items []Item) {
	if s.Redis == nil {
		return
	}
	if raw, err := json.Marshal(items); err == nil {
		_ = s.Redis.Set(ctx, cacheKey, raw, redisx.TTLMenuCache).Err()
	}
}

// Search matches name substrings, case-insensitive.
func (s *Service) Search(ctx context.Context, q string) ([]Item, error) {
	items, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(q)
	out := items[:0:0]
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Watch reloads the whole menu on every FoodData change and hands the fresh
// snapshot to fn. The reload skips the cache: an invalidation must never be
// answered with the snapshot it is replacing. The fresh list rewrites the
// cache on the way out.
func (s *Service) Watch(ctx context.Context, w store.Watcher, fn func([]Item)) (store.Unsubscribe, error) {
	reload := func(string) {
		rctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		items, err := s.load(rctx, "")
		if err != nil {
			log.Printf("catalog: reload failed: %v", err)
			return
		}
		s.fillCache(rctx, fmt.Sprintf(redisx.KeyMenuCache, cacheCategory("")), items)
		fn(items)
	}
	return w.Watch(ctx, store.CollFoodData, reload)
}

// Seed writes catalog entries and drops the menu snapshots they stale out;
// used by fixtures and local bootstrap.
func (s *Service) Seed(ctx context.Context, items []Item) error {
	touched := map[string]bool{cacheCategory(""): true}
	for _, it := range items {
		if err := s.Store.Upsert(ctx, store.CollFoodData, it.ID, catalogOwner, it); err != nil {
			return err
		}
		if it.Category != "" {
			touched[it.Category] = true
		}
	}
	if s.Redis != nil && len(items) > 0 {
		keys := make([]string, 0, len(touched))
		for c := range touched {
			keys = append(keys, fmt.Sprintf(redisx.KeyMenuCache, c))
		}
		_ = s.Redis.Del(ctx, keys...).Err()
	}
	return nil
}

func cacheCategory(category string) string {
	if category == "" {
		return "all"
	}
	return category
}
