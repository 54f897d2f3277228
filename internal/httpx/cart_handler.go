package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/cart"
	"github.com/ariefcatur/go-cafe-orders.git/internal/catalog"
	"github.com/ariefcatur/go-cafe-orders.git/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	Cart    *cart.Service
	Catalog *catalog.Service
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Post("/cart/items", h.add)
	r.Post("/cart/remove", h.remove)
}

type addLineReq struct {
	ItemID   string `json:"item_id"`
	Qty      int    `json:"qty"`
	AddonQty int    `json:"addon_qty"`
}

type cartResp struct {
	Lines []pricing.Line `json:"lines"`
	Total int            `json:"total"`
	Empty bool           `json:"empty"`
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.Cart.Lines(ctx, UID(ctx))
	if err != nil {
		fail(w, err)
		return
	}
	if lines == nil {
		lines = []pricing.Line{}
	}
	writeJSON(w, http.StatusOK, cartResp{
		Lines: lines,
		Total: pricing.Total(lines),
		Empty: len(lines) == 0,
	})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addLineReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// price comes from the catalog document, never from the client
	item, err := h.Catalog.Get(ctx, req.ItemID)
	if err != nil {
		fail(w, err)
		return
	}
	if err := h.Cart.Add(ctx, UID(ctx), item, req.Qty, req.AddonQty); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added to cart"})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	// removal matches the whole line, so the client echoes it back verbatim
	var line pricing.Line
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Cart.Remove(ctx, UID(ctx), line); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
