package site

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// ListVariants handles GET /api/site
func (h *Handler) ListVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"variants": h.registry.Slugs()})
}

// GetVariant handles GET /api/site/{slug}
func (h *Handler) GetVariant(w http.ResponseWriter, r *http.Request) {
	v, err := h.registry.Get(chi.URLParam(r, "slug"))
	if errors.Is(err, ErrVariantNotFound) {
		http.Error(w, "variant not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variant": v, "source": v.Source()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
