package leads

import (
	"strings"
	"time"
)

// Status is the dashboard-managed state of a lead. Any status may follow any
// other; there is no enforced state machine.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusClosed    Status = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusClosed:
		return true
	}
	return false
}

// ParseStatus normalizes a status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Urgency is the customer-selected response tier.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// ParseUrgency is case-insensitive; an empty value means normal.
func ParseUrgency(raw string) (Urgency, bool) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(raw))); u {
	case "":
		return UrgencyNormal, true
	case UrgencyNormal, UrgencyUrgent, UrgencyEmergency:
		return u, true
	}
	return "", false
}

// Budget buckets offered on the intake form.
var BudgetRanges = []string{
	"Under $1,000",
	"$1,000 - $5,000",
	"$5,000 - $15,000",
	"$15,000 - $50,000",
	"Over $50,000",
}

func validBudget(b string) bool {
	for _, r := range BudgetRanges {
		if b == r {
			return true
		}
	}
	return false
}

// Lead is the persisted sales lead. JSON names follow the store columns.
type Lead struct {
	ID                 string    `json:"id,omitempty"`
	FullName           string    `json:"full_name"`
	Phone              string    `json:"phone"`
	Email              string    `json:"email"`
	ServiceNeeded      string    `json:"service_needed"`
	ProjectDescription string    `json:"project_description"`
	UrgencyLevel       Urgency   `json:"urgency_level"`
	Budget             string    `json:"budget,omitempty"`
	PropertyAddress    string    `json:"property_address,omitempty"`
	Timeline           string    `json:"timeline"`
	LeadValue          int       `json:"lead_value"`
	Source             string    `json:"source"`
	Status             Status    `json:"status"`
	Notes              string    `json:"notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Update carries the dashboard-editable fields.
type Update struct {
	Status Status
	Notes  string
}

// ChangeType mirrors the store's row-level operation.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
)

// Change is a push notification for a single lead row.
type Change struct {
	Type ChangeType `json:"type"`
	Lead *Lead      `json:"lead"`
}

// CatalogEntry is a selectable service read from the store.
type CatalogEntry struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// OtherService is the catalog choice that defers to the free-text custom service.
const OtherService = "Other"

// DefaultCatalog is seeded into stores that have no catalog of their own.
func DefaultCatalog() []CatalogEntry {
	names := []string{
		"Roofing", "AC/HVAC", "Plumbing", "Electrical", "Pool Service",
		"Landscaping", "Home Remodeling", "Cleaning Services", "Windows/Doors",
		"Solar", "Hurricane Prep", OtherService,
	}
	out := make([]CatalogEntry, 0, len(names))
	for _, n := range names {
		out = append(out, CatalogEntry{Name: n, Active: true})
	}
	return out
}
