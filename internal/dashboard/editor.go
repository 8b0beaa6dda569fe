package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/internal/observability/metrics"
)

// ErrEditorClosed is returned when saving an editor that is not open.
var ErrEditorClosed = errors.New("dashboard: editor is not open")

// Editor is the edit view for one lead's status and notes.
type Editor struct {
	mirror  *Mirror
	repo    leads.Repository
	metrics *metrics.LeadMetrics

	LeadID string
	Status leads.Status
	Notes  string

	current leads.Status
	open    bool
}

func NewEditor(mirror *Mirror, repo leads.Repository, m *metrics.LeadMetrics) *Editor {
	return &Editor{mirror: mirror, repo: repo, metrics: m}
}

// Open loads the lead's current notes. Status starts empty, meaning keep.
func (e *Editor) Open(lead *leads.Lead) {
	e.LeadID = lead.ID
	e.Notes = lead.Notes
	e.Status = ""
	e.current = lead.Status
	e.open = true
}

// IsOpen reports whether the editor is showing a lead.
func (e *Editor) IsOpen() bool { return e.open }

// Save issues exactly one update for the open lead. On success the mirror
// is re-fetched and the editor is cleared; on failure it stays open with its
// values and the error is returned.
func (e *Editor) Save(ctx context.Context) (*leads.Lead, error) {
	if !e.open {
		return nil, ErrEditorClosed
	}
	status := e.Status
	if status == "" {
		status = e.current
	}
	if !status.Valid() {
		return nil, leads.ErrInvalidStatus
	}

	updated, err := e.repo.Update(ctx, e.LeadID, leads.Update{Status: status, Notes: e.Notes})
	if err != nil {
		e.metrics.ObserveUpdate(false)
		return nil, fmt.Errorf("dashboard: update lead %s: %w", e.LeadID, err)
	}
	e.metrics.ObserveUpdate(true)

	// The write landed, so the view closes even if the re-fetch fails.
	e.clear()
	if e.mirror != nil {
		if err := e.mirror.Refresh(ctx); err != nil {
			return updated, err
		}
	}
	return updated, nil
}

// Close discards the edit view.
func (e *Editor) Close() { e.clear() }

func (e *Editor) clear() {
	e.LeadID = ""
	e.Status = ""
	e.Notes = ""
	e.current = ""
	e.open = false
}
