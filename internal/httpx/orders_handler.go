package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/auth"
	"github.com/ariefcatur/go-cafe-orders.git/internal/cart"
	"github.com/ariefcatur/go-cafe-orders.git/internal/orders"
	"github.com/ariefcatur/go-cafe-orders.git/internal/payment"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	Orders  *orders.Service
	Cart    *cart.Service
	Auth    *auth.Service
	Watcher store.Watcher // nil disables /orders/watch
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.checkout)
	r.Get("/orders", h.list)
	r.Get("/orders/watch", h.watch)
	r.Post("/orders/{id}/cancel", h.cancel)
}

type checkoutReq struct {
	DeliveryMode    orders.DeliveryMode `json:"delivery_mode"`
	DeliveryAddress string              `json:"delivery_address"`
	Card            payment.Card        `json:"card"`
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.DeliveryMode == "" {
		req.DeliveryMode = orders.ModePickup
	}
	if req.DeliveryMode == orders.ModeDelivery && req.DeliveryAddress == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delivery address required"})
		return
	}
	if err := payment.Validate(req.Card); err != nil {
		fail(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	uid := UID(ctx)

	u, err := h.Auth.UserByUID(ctx, uid)
	if err != nil {
		fail(w, err)
		return
	}
	lines, err := h.Cart.Lines(ctx, uid)
	if err != nil {
		fail(w, err)
		return
	}

	o, err := h.Orders.Create(ctx, uid, lines,
		orders.Contact{Name: u.Name, Phone: u.Phone, Address: u.Address},
		req.DeliveryMode, req.DeliveryAddress)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Orders.List(ctx, UID(ctx))
	if err != nil {
		fail(w, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

// watch streams the user's order list as server-sent events, one full
// newest-first snapshot per event; clients replace their copy, never patch
// it. The router's request timeout bounds each stream, so clients reconnect.
func (h *OrdersHandler) watch(w http.ResponseWriter, r *http.Request) {
	if h.Watcher == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "live updates not available"})
		return
	}
	fl, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	ctx := r.Context()
	uid := UID(ctx)

	// latest snapshot wins; a slow client never queues stale lists
	updates := make(chan []orders.Order, 1)
	unsub, err := h.Orders.Watch(ctx, h.Watcher, uid, func(list []orders.Order) {
		select {
		case updates <- list:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- list
		}
	})
	if err != nil {
		fail(w, err)
		return
	}
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	list, err := h.Orders.List(ctx, uid)
	if err != nil {
		return
	}
	writeEvent(w, fl, list)

	for {
		select {
		case <-ctx.Done():
			return
		case list := <-updates:
			writeEvent(w, fl, list)
		}
	}
}

func writeEvent(w http.ResponseWriter, fl http.Flusher, list []orders.Order) {
	if list == nil {
		list = []orders.Order{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", raw)
	fl.Flush()
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.Cancel(ctx, UID(ctx), orderID); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(orders.StatusCancelled)})
}
