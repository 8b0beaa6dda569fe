package leads

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// Handler handles HTTP requests for lead intake
type Handler struct {
	intake *IntakeService
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(intake *IntakeService, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		intake: intake,
		repo:   repo,
		logger: logger,
	}
}

// SubmitResponse is returned by POST /api/leads.
type SubmitResponse struct {
	Lead         *Lead         `json:"lead,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Form         Form          `json:"form"`
	Errors       []string      `json:"errors,omitempty"`
}

// CreateLead handles POST /api/leads requests
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	form := NewForm()
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.intake.Submit(r.Context(), &form)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, SubmitResponse{Form: form, Errors: verr.Fields})
			return
		}
		resp := SubmitResponse{Form: form}
		if outcome != nil {
			resp.Notification = &outcome.Notification
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{
		Lead:         outcome.Lead,
		Notification: &outcome.Notification,
		Form:         form,
	})
}

// ListServices handles GET /api/services requests
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repo.ListCatalog(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	active := make([]CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Active {
			active = append(active, e)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"services": active,
		"budgets":  BudgetRanges,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
