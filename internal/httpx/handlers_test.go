package httpx

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/auth"
	"github.com/ariefcatur/go-cafe-orders.git/internal/cart"
	"github.com/ariefcatur/go-cafe-orders.git/internal/catalog"
	"github.com/ariefcatur/go-cafe-orders.git/internal/orders"
	"github.com/ariefcatur/go-cafe-orders.git/internal/pricing"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mem := store.NewMemory()

	authSvc := &auth.Service{
		Store:      mem,
		Sessions:   auth.NewMemorySessions(),
		Secret:     []byte("test-secret"),
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	catalogSvc := &catalog.Service{Store: mem}
	cartSvc := &cart.Service{Store: mem}
	orderSvc := &orders.Service{Store: mem, Producer: "test-api"}

	require.NoError(t, catalogSvc.Seed(context.Background(), []catalog.Item{
		{ID: "latte", Name: "Latte", Price: "10", Category: "starbucks"},
		{ID: "donut", Name: "Donut", Price: "8", Addon: "Glaze", AddonPrice: "5", Category: "dunkin"},
	}))

	router := NewRouter()
	(&AuthHandler{Auth: authSvc}).Register(router)
	(&CatalogHandler{Catalog: catalogSvc}).Register(router)
	router.Group(func(r chi.Router) {
		r.Use(RequireUser(authSvc))
		(&CartHandler{Cart: cartSvc, Catalog: catalogSvc}).Register(r)
		(&OrdersHandler{Orders: orderSvc, Cart: cartSvc, Auth: authSvc, Watcher: mem}).Register(r)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func signUp(t *testing.T, srv *httptest.Server) auth.Session {
	t.Helper()
	var sess auth.Session
	resp := doJSON(t, http.MethodPost, srv.URL+"/auth/signup", "", auth.SignUpParams{
		Name:            "Sam",
		Email:           "sam@example.edu",
		Phone:           "2015551234",
		Address:         "505 Ramapo Valley Rd",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
	}, &sess)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, sess.Token)
	return sess
}

func TestMenuIsPublic(t *testing.T) {
	srv := newTestServer(t)

	var items []catalog.Item
	resp := doJSON(t, http.MethodGet, srv.URL+"/menu", "", nil, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, items, 2)

	items = nil
	resp = doJSON(t, http.MethodGet, srv.URL+"/menu?category=dunkin", "", nil, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, items, 1)
	assert.Equal(t, "donut", items[0].ID)
}

func TestCartRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/cart", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckoutFlow(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv)

	// empty cart first
	var c cartResp
	resp := doJSON(t, http.MethodGet, srv.URL+"/cart", sess.Token, nil, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, c.Empty)
	assert.Equal(t, 0, c.Total)

	// add two lines
	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/items", sess.Token,
		addLineReq{ItemID: "latte", Qty: 3}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/items", sess.Token,
		addLineReq{ItemID: "donut", Qty: 2, AddonQty: 3}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	c = cartResp{}
	resp = doJSON(t, http.MethodGet, srv.URL+"/cart", sess.Token, nil, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 61, c.Total)
	require.Len(t, c.Lines, 2)

	// bad card is rejected before any order exists
	resp = doJSON(t, http.MethodPost, srv.URL+"/orders", sess.Token, map[string]any{
		"delivery_mode": "pickup",
		"card":          map[string]string{"number": "1234", "expiry": "09/27", "cvv": "123", "holder": "Sam"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// checkout
	var placed orders.Order
	resp = doJSON(t, http.MethodPost, srv.URL+"/orders", sess.Token, map[string]any{
		"delivery_mode":    "delivery",
		"delivery_address": "library, 2nd floor",
		"card": map[string]string{
			"number": "4242424242424242", "expiry": "09/27", "cvv": "123", "holder": "Sam",
		},
	}, &placed)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, orders.StatusPending, placed.Status)
	assert.Equal(t, 61, placed.TotalCost)
	assert.Equal(t, "library, 2nd floor", placed.Address)
	assert.Equal(t, "Sam", placed.Name)

	// checkout does not clear the cart
	c = cartResp{}
	resp = doJSON(t, http.MethodGet, srv.URL+"/cart", sess.Token, nil, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, c.Empty)

	// list and cancel
	var list []orders.Order
	resp = doJSON(t, http.MethodGet, srv.URL+"/orders", sess.Token, nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list, 1)

	resp = doJSON(t, http.MethodPost, srv.URL+"/orders/"+placed.ID+"/cancel", sess.Token, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// second cancel hits the terminal guard
	resp = doJSON(t, http.MethodPost, srv.URL+"/orders/"+placed.ID+"/cancel", sess.Token, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestOrdersWatchStreams(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/orders/watch", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	snapshots := make(chan []orders.Order, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var list []orders.Order
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &list) == nil {
				snapshots <- list
			}
		}
	}()

	// first event is the current (empty) list
	select {
	case list := <-snapshots:
		assert.Empty(t, list)
	case <-ctx.Done():
		t.Fatal("no initial snapshot")
	}

	// placing an order pushes a fresh snapshot down the open stream
	r2 := doJSON(t, http.MethodPost, srv.URL+"/cart/items", sess.Token,
		addLineReq{ItemID: "latte", Qty: 1}, nil)
	require.Equal(t, http.StatusCreated, r2.StatusCode)
	var placed orders.Order
	r2 = doJSON(t, http.MethodPost, srv.URL+"/orders", sess.Token, map[string]any{
		"delivery_mode": "pickup",
		"card": map[string]string{
			"number": "4242424242424242", "expiry": "09/27", "cvv": "123", "holder": "Sam",
		},
	}, &placed)
	require.Equal(t, http.StatusCreated, r2.StatusCode)

	for {
		select {
		case list := <-snapshots:
			if len(list) == 1 && list[0].ID == placed.ID {
				return
			}
		case <-ctx.Done():
			t.Fatal("stream never delivered the placed order")
		}
	}
}

func TestFailMasksInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	fail(rec, errors.New("pgx: connection refused (host=10.0.0.3)"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pgx")
	assert.Contains(t, rec.Body.String(), "internal error")

	// domain sentinels keep their user-readable message
	rec = httptest.NewRecorder()
	fail(rec, cart.ErrLineNotFound)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), cart.ErrLineNotFound.Error())
}

func TestRemoveLine(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/cart/items", sess.Token,
		addLineReq{ItemID: "latte", Qty: 3}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var c cartResp
	resp = doJSON(t, http.MethodGet, srv.URL+"/cart", sess.Token, nil, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, c.Lines, 1)

	// echo the line back to remove it
	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/remove", sess.Token, c.Lines[0], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	c = cartResp{}
	resp = doJSON(t, http.MethodGet, srv.URL+"/cart", sess.Token, nil, &c)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, c.Empty)

	// a line that is not in the cart is a 400
	resp = doJSON(t, http.MethodPost, srv.URL+"/cart/remove", sess.Token,
		pricing.Line{Item: catalog.Item{ID: "latte", Price: "10"}, Qty: 99}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
