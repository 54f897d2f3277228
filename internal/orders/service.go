package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-cafe-orders.git/internal/kafka"
	"github.com/ariefcatur/go-cafe-orders.git/internal/pricing"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

var (
	ErrAlreadyTerminal = errors.New("order already delivered or cancelled")
	ErrBadTransition   = errors.New("status transition not allowed")
	ErrNotOwner        = errors.New("order belongs to another user")
	ErrEmptyOrder      = errors.New("order has no lines")
	ErrNotFound        = store.ErrNotFound
)

// Publisher is what the service needs from a Kafka producer. Satisfied by
// *kafkax.Producer; tests hand in a recorder.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Contact is the profile slice denormalized onto each order.
type Contact struct {
	Name    string
	Phone   string
	Address string
}

type Service struct {
	Store    store.Store
	Events   Publisher // nil disables publishing
	Producer string    // service name stamped on envelopes

	// Now is swappable so tests can pin order ids and timestamps.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Create snapshots the lines into a new pending order. The cart itself is
// left untouched: clearing it here would be a second, non-atomic write and
// the legacy flow never did it (see DESIGN.md).
func (s *Service) Create(ctx context.Context, uid string, lines []pricing.Line, contact Contact, mode DeliveryMode, deliveryAddr string) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyOrder
	}
	now := s.now()
	addr := contact.Address
	if mode == ModeDelivery {
		addr = deliveryAddr
	}
	total := pricing.Total(lines)
	o := Order{
		ID:           strconv.FormatInt(now.UnixMilli(), 10),
		UserID:       uid,
		Lines:        append([]pricing.Line(nil), lines...),
		Status:       StatusPending,
		TotalCost:    total,
		CreatedAt:    now,
		DeliveryMode: mode,
		Address:      addr,
		Name:         contact.Name,
		Phone:        contact.Phone,
		Payment:      "online",
		PaymentTotal: total,
	}
	if err := s.Store.Upsert(ctx, store.CollUserOrders, o.ID, uid, o); err != nil {
		return Order{}, fmt.Errorf("persist order: %w", err)
	}
	s.publish(EventOrderPlaced, o.ID, OrderPlacedPayload{
		OrderID:      o.ID,
		UserID:       uid,
		TotalCost:    total,
		DeliveryMode: mode,
		Address:      addr,
	})
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (Order, error) {
	var o Order
	err := s.Store.Get(ctx, store.CollUserOrders, orderID, &o)
	return o, err
}

// Cancel moves the order to cancelled. Terminal orders are rejected, never
// silently re-cancelled.
func (s *Service) Cancel(ctx context.Context, uid, orderID string) error {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != uid {
		return ErrNotOwner
	}
	if Terminal(o.Status) {
		return ErrAlreadyTerminal
	}
	from := o.Status
	o.Status = StatusCancelled
	if err := s.Store.Update(ctx, store.CollUserOrders, o.ID, o.UserID, o); err != nil {
		return err
	}
	s.publish(EventOrderCancelled, o.ID, StatusChangedPayload{
		OrderID: o.ID, From: from, To: StatusCancelled, Reason: "CANCELLED_BY_USER",
	})
	return nil
}

// Dispatch is the operator-side transition pending -> ontheway, assigning
// the courier. Orders cancelled before pickup are left alone.
func (s *Service) Dispatch(ctx context.Context, orderID, courierName, courierPhone string) error {
	return s.advance(ctx, orderID, StatusOnTheWay, EventOrderDispatch, func(o *Order) {
		o.CourierName = courierName
		o.CourierPhone = courierPhone
	})
}

// Deliver is the operator-side transition ontheway -> delivered.
func (s *Service) Deliver(ctx context.Context, orderID string) error {
	return s.advance(ctx, orderID, StatusDelivered, EventOrderDelivered, nil)
}

func (s *Service) advance(ctx context.Context, orderID string, to Status, event string, mutate func(*Order)) error {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, o.Status, to)
	}
	from := o.Status
	o.Status = to
	if mutate != nil {
		mutate(&o)
	}
	if err := s.Store.Update(ctx, store.CollUserOrders, o.ID, o.UserID, o); err != nil {
		return err
	}
	s.publish(event, o.ID, StatusChangedPayload{OrderID: o.ID, From: from, To: to})
	return nil
}

// List returns the user's orders, newest first.
func (s *Service) List(ctx context.Context, uid string) ([]Order, error) {
	docs, err := s.Store.ListOwned(ctx, store.CollUserOrders, uid)
	if err != nil {
		return nil, err
	}
	var out []Order
	for _, raw := range docs {
		var o Order
		if err := json.Unmarshal(raw, &o); err != nil {
			log.Printf("orders: skipping malformed document: %v", err)
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Watch fires fn with the user's fresh order list whenever any order
// document changes. Full snapshot replacement, no diffing.
func (s *Service) Watch(ctx context.Context, w store.Watcher, uid string, fn func([]Order)) (store.Unsubscribe, error) {
	reload := func(string) {
		rctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		list, err := s.List(rctx, uid)
		if err != nil {
			log.Printf("orders: reload failed: %v", err)
			return
		}
		fn(list)
	}
	return w.Watch(ctx, store.CollUserOrders, reload)
}

func (s *Service) publish(eventType, orderID string, payload any) {
	if s.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Producer,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Events.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
