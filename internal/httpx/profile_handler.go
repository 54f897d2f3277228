package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/profile"
	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	Profile *profile.Service
}

func (h *ProfileHandler) Register(r chi.Router) {
	r.Get("/profile", h.get)
	r.Put("/profile", h.update)
	r.Post("/profile/password", h.changePassword)
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Profile.Get(ctx, UID(ctx))
	if err != nil {
		fail(w, err)
		return
	}
	u.PasswordHash = "" // not the client's business
	writeJSON(w, http.StatusOK, u)
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Profile.Update(ctx, UID(ctx), req.Name, req.Address); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "profile updated"})
}

func (h *ProfileHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Profile.ChangePassword(ctx, UID(ctx), req.OldPassword, req.NewPassword); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
