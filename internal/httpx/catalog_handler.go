package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	Catalog *catalog.Service
}

func (h *CatalogHandler) Register(r *chi.Mux) {
	r.Get("/menu", h.list)
	r.Get("/menu/{id}", h.get)
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var (
		items []catalog.Item
		err   error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		items, err = h.Catalog.Search(ctx, q)
	} else {
		items, err = h.Catalog.List(ctx, r.URL.Query().Get("category"))
	}
	if err != nil {
		fail(w, err)
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}
