package courier

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	kafkax "github.com/ariefcatur/go-cafe-orders.git/internal/kafka"
	"github.com/ariefcatur/go-cafe-orders.git/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

// Deduper is satisfied by *redisx.Dedup; tests use a map.
type Deduper interface {
	MarkOnce(ctx context.Context, id string) (bool, error)
}

// Service is the operator process behind the ontheway/delivered transitions:
// it consumes placement events and dispatches each new order once.
type Service struct {
	Orders *orders.Service
	Dedup  Deduper

	CourierName  string
	CourierPhone string
}

// HandleOrderPlaced is wired as the consumer handler for order.placed.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil // ignore
	}

	// at-least-once delivery, so dedup on event id
	first, err := s.Dedup.MarkOnce(ctx, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	err = s.Orders.Dispatch(ctx, p.OrderID, s.CourierName, s.CourierPhone)
	switch {
	case errors.Is(err, orders.ErrBadTransition):
		// cancelled (or already dispatched) before we got here; drop it
		log.Printf("courier: order %s not dispatchable: %v", p.OrderID, err)
		return nil
	case err != nil:
		return err
	}
	log.Printf("courier: order %s dispatched", p.OrderID)
	return nil
}
