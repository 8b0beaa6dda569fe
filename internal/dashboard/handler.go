package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/contractor-leads/internal/http/middleware"
	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/internal/observability/metrics"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

const (
	awayToast      = "You are now away - AI will handle visitors"
	availableToast = "You are now available"
)

// Handler serves the manager dashboard API.
type Handler struct {
	mirror      *Mirror
	repo        leads.Repository
	profiles    ProfileStore
	live        http.Handler
	metrics     *metrics.LeadMetrics
	defaultRole Role
	validate    *validator.Validate
	logger      *logging.Logger
	now         func() time.Time
}

// HandlerConfig groups the dashboard handler dependencies. DefaultRole is
// used when the request carries no authenticated role.
type HandlerConfig struct {
	Mirror      *Mirror
	Repo        leads.Repository
	Profiles    ProfileStore
	Metrics     *metrics.LeadMetrics
	DefaultRole Role
	Logger      *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if !cfg.DefaultRole.Valid() {
		cfg.DefaultRole = RoleManager
	}
	if cfg.Profiles == nil {
		cfg.Profiles = NewMemoryProfileStore()
	}
	return &Handler{
		mirror:      cfg.Mirror,
		repo:        cfg.Repo,
		profiles:    cfg.Profiles,
		live:        NewLiveFeed(cfg.Mirror, cfg.Logger),
		metrics:     cfg.Metrics,
		defaultRole: cfg.DefaultRole,
		validate:    validator.New(),
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Routes mounts the dashboard endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/leads", h.ListLeads)
	r.Get("/leads/export.csv", h.ExportCSV)
	r.Get("/leads/export.tsv", h.ExportTSV)
	r.Get("/leads/export.xlsx", h.ExportXLSX)
	r.Patch("/leads/{id}", h.UpdateLead)
	r.Get("/stats", h.Stats)
	r.Get("/away", h.GetAway)
	r.Post("/away", h.ToggleAway)
	r.Get("/live", h.live.ServeHTTP)
}

// ListLeads handles GET /api/dashboard/leads?search=
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	list := h.mirror.Filtered(r.URL.Query().Get("search"))
	writeJSON(w, http.StatusOK, map[string]any{"leads": list, "total": len(list)})
}

// Stats handles GET /api/dashboard/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ComputeStats(h.mirror.Leads()))
}

// UpdateLeadRequest is the edit view submission. A nil Notes keeps the
// current notes; an empty Status keeps the current status.
type UpdateLeadRequest struct {
	Status string  `json:"status" validate:"omitempty,oneof=new contacted qualified closed"`
	Notes  *string `json:"notes" validate:"omitempty,max=5000"`
}

// UpdateLead handles PATCH /api/dashboard/leads/{id}
func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lead, ok := h.mirror.Get(id)
	if !ok {
		loaded, err := h.repo.GetByID(r.Context(), id)
		if errors.Is(err, leads.ErrLeadNotFound) {
			http.Error(w, "lead not found", http.StatusNotFound)
			return
		}
		if err != nil {
			h.logger.Error("dashboard: failed to load lead", "lead_id", id, "error", err)
			http.Error(w, "failed to load lead", http.StatusBadGateway)
			return
		}
		lead = loaded
	}

	editor := NewEditor(h.mirror, h.repo, h.metrics)
	editor.Open(lead)
	editor.Status = leads.Status(req.Status)
	if req.Notes != nil {
		editor.Notes = *req.Notes
	}

	updated, err := editor.Save(r.Context())
	switch {
	case err == nil:
	case updated != nil:
		h.logger.Warn("dashboard: refresh after update failed", "lead_id", id, "error", err)
	case errors.Is(err, leads.ErrLeadNotFound):
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	default:
		h.logger.Error("dashboard: failed to update lead", "lead_id", id, "error", err)
		http.Error(w, "failed to update lead", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lead": updated})
}

// ExportCSV handles GET /api/dashboard/leads/export.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	body := ExportCSV(h.mirror.Filtered(r.URL.Query().Get("search")))
	h.writeAttachment(w, "csv", "text/csv; charset=utf-8", []byte(body))
}

// ExportTSV handles GET /api/dashboard/leads/export.tsv
func (h *Handler) ExportTSV(w http.ResponseWriter, r *http.Request) {
	body := ExportTSV(h.mirror.Filtered(r.URL.Query().Get("search")))
	h.writeAttachment(w, "tsv", "text/tab-separated-values; charset=utf-8", []byte(body))
}

// ExportXLSX handles GET /api/dashboard/leads/export.xlsx
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	body, err := ExportXLSX(h.mirror.Filtered(r.URL.Query().Get("search")))
	if err != nil {
		h.logger.Error("dashboard: xlsx export failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	h.writeAttachment(w, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", body)
}

func (h *Handler) writeAttachment(w http.ResponseWriter, ext, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename(h.now(), ext)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// GetAway handles GET /api/dashboard/away
func (h *Handler) GetAway(w http.ResponseWriter, r *http.Request) {
	role := h.role(r)
	away, err := h.profiles.IsAway(r.Context(), role)
	if err != nil {
		h.logger.Error("dashboard: failed to read away flag", "role", role, "error", err)
		http.Error(w, "failed to read profile", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, Profile{Role: role, IsAway: away})
}

// ToggleAway handles POST /api/dashboard/away
func (h *Handler) ToggleAway(w http.ResponseWriter, r *http.Request) {
	role := h.role(r)
	away, err := h.profiles.ToggleAway(r.Context(), role)
	if err != nil {
		h.logger.Error("dashboard: failed to toggle away flag", "role", role, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"notification": Notification{Title: "Error", Description: "Failed to update status"},
		})
		return
	}
	toast := availableToast
	if away {
		toast = awayToast
	}
	h.logger.Info("dashboard: away flag toggled", "role", role, "is_away", away)
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":      Profile{Role: role, IsAway: away},
		"notification": Notification{Title: "Status Updated", Description: toast},
	})
}

func (h *Handler) role(r *http.Request) Role {
	if role := Role(middleware.DashboardRoleFromContext(r.Context())); role.Valid() {
		return role
	}
	return h.defaultRole
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
