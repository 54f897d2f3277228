package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-cafe-orders.git/internal/auth"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	Auth *auth.Service
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/auth/signup", h.signUp)
	r.Post("/auth/signin", h.signIn)
	r.Post("/auth/signout", h.signOut)
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var p auth.SignUpParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	sess, err := h.Auth.SignUp(r.Context(), p)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	sess, err := h.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AuthHandler) signOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}
	if err := h.Auth.SignOut(r.Context(), token); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// RequireUser verifies the bearer token and stashes the uid in the context.
func RequireUser(a *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
				return
			}
			uid, err := a.Verify(r.Context(), token)
			if err != nil {
				fail(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
