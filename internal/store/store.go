package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collections. One document per key; ownership is a single user id.
const (
	CollFoodData   = "FoodData"   // catalog, read-only to this service
	CollUserData   = "UserData"   // profile, keyed by email, owned by uid
	CollUserCart   = "UserCart"   // one document per uid
	CollUserOrders = "UserOrders" // one document per order id, owned by uid
)

var ErrNotFound = errors.New("document not found")

// Store is the document contract the domain services run against.
// Injected everywhere so tests can substitute Memory.
type Store interface {
	// Get decodes the document at (collection, key) into out.
	// Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, key string, out any) error

	// Upsert writes the document, creating it if absent.
	Upsert(ctx context.Context, collection, key, owner string, doc any) error

	// Update overwrites an existing document; ErrNotFound if absent.
	Update(ctx context.Context, collection, key, owner string, doc any) error

	Delete(ctx context.Context, collection, key string) error

	// ListOwned returns every document in the collection owned by owner.
	ListOwned(ctx context.Context, collection, owner string) ([]json.RawMessage, error)
}

// Unsubscribe tears down a live subscription. Safe to call more than once.
type Unsubscribe func()

// Watcher delivers change notifications for a collection. Consumers must
// treat each notification as a cue to reload the full result set, never to
// patch a local copy.
type Watcher interface {
	Watch(ctx context.Context, collection string, fn func(key string)) (Unsubscribe, error)
}
