package cart

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/ariefcatur/go-cafe-orders.git/internal/catalog"
	"github.com/ariefcatur/go-cafe-orders.git/internal/pricing"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
)

var (
	ErrBadQuantity      = errors.New("quantity must be at least 1")
	ErrBadAddonQuantity = errors.New("addon quantity must not be negative")
	ErrLineNotFound     = errors.New("line not in cart")
)

// Document is the one-per-user UserCart record.
type Document struct {
	UID   string         `json:"uid"`
	Lines []pricing.Line `json:"cart"`
}

// Service keeps one user's lines in the store. A missing document reads as
// an empty cart, never as an error.
type Service struct {
	Store store.Store
}

func (s *Service) load(ctx context.Context, uid string) (Document, error) {
	var doc Document
	err := s.Store.Get(ctx, store.CollUserCart, uid, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return Document{UID: uid}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("load cart: %w", err)
	}
	return doc, nil
}

// Add appends a new line. Same-item lines are kept distinct; there is no
// merge with an existing line.
func (s *Service) Add(ctx context.Context, uid string, item catalog.Item, qty, addonQty int) error {
	if qty < 1 {
		return ErrBadQuantity
	}
	if addonQty < 0 {
		return ErrBadAddonQuantity
	}
	doc, err := s.load(ctx, uid)
	if err != nil {
		return err
	}
	doc.Lines = append(doc.Lines, pricing.Line{Item: item, Qty: qty, AddonQty: addonQty})
	return s.Store.Upsert(ctx, store.CollUserCart, uid, uid, doc)
}

// Remove drops the first line that matches exactly: catalog entry and both
// quantities. Matching by item id alone would delete the wrong duplicate.
func (s *Service) Remove(ctx context.Context, uid string, line pricing.Line) error {
	doc, err := s.load(ctx, uid)
	if err != nil {
		return err
	}
	for i, l := range doc.Lines {
		if reflect.DeepEqual(l, line) {
			doc.Lines = append(doc.Lines[:i], doc.Lines[i+1:]...)
			return s.Store.Upsert(ctx, store.CollUserCart, uid, uid, doc)
		}
	}
	return ErrLineNotFound
}

func (s *Service) Lines(ctx context.Context, uid string) ([]pricing.Line, error) {
	doc, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	return doc.Lines, nil
}

func (s *Service) Total(ctx context.Context, uid string) (int, error) {
	lines, err := s.Lines(ctx, uid)
	if err != nil {
		return 0, err
	}
	return pricing.Total(lines), nil
}

func (s *Service) IsEmpty(ctx context.Context, uid string) (bool, error) {
	lines, err := s.Lines(ctx, uid)
	if err != nil {
		return false, err
	}
	return len(lines) == 0, nil
}
