package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/auth"
	"github.com/ariefcatur/go-cafe-orders.git/internal/cart"
	"github.com/ariefcatur/go-cafe-orders.git/internal/orders"
	"github.com/ariefcatur/go-cafe-orders.git/internal/payment"
	"github.com/ariefcatur/go-cafe-orders.git/internal/profile"
	"github.com/ariefcatur/go-cafe-orders.git/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps domain errors onto status codes. Domain sentinels carry
// user-readable messages; anything unrecognized is a provider failure that
// gets logged here and masked on the wire.
func fail(w http.ResponseWriter, err error) {
	code := status(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Printf("http: internal error: %v", err)
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func status(err error) int {
	switch {
	case errors.Is(err, auth.ErrNotSignedIn),
		errors.Is(err, auth.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, orders.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrAlreadyTerminal),
		errors.Is(err, orders.ErrBadTransition),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrBadPhone),
		errors.Is(err, cart.ErrBadQuantity),
		errors.Is(err, cart.ErrBadAddonQuantity),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, profile.ErrWrongPassword),
		errors.Is(err, payment.ErrCardNumber),
		errors.Is(err, payment.ErrExpiry),
		errors.Is(err, payment.ErrCVV),
		errors.Is(err, payment.ErrHolder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type ctxKey int

const ctxUID ctxKey = 0

// UID returns the authenticated user id stored by RequireUser.
func UID(ctx context.Context) string {
	uid, _ := ctx.Value(ctxUID).(string)
	return uid
}
