package leads

import (
	"math"
	"strings"
)

// DefaultBaseValue applies to services missing from the table, including
// free-text custom services.
const DefaultBaseValue = 250

// baseValues is the single canonical table shared by every landing variant.
var baseValues = map[string]int{
	"roofing":           450,
	"ac/hvac":           350,
	"plumbing":          300,
	"electrical":        400,
	"pool service":      250,
	"landscaping":       280,
	"home remodeling":   600,
	"cleaning services": 180,
	"windows/doors":     350,
	"solar":             750,
	"hurricane prep":    500,
}

var urgencyMultipliers = map[Urgency]float64{
	UrgencyNormal:    1.0,
	UrgencyUrgent:    1.3,
	UrgencyEmergency: 1.8,
}

var timelineLabels = map[Urgency]string{
	UrgencyNormal:    "1-month",
	UrgencyUrgent:    "1-week",
	UrgencyEmergency: "Emergency",
}

// BaseValue looks up the per-service base value, case-insensitively.
func BaseValue(service string) int {
	if v, ok := baseValues[strings.ToLower(strings.TrimSpace(service))]; ok {
		return v
	}
	return DefaultBaseValue
}

// Multiplier returns the urgency multiplier; unknown or empty tiers count as normal.
func Multiplier(u Urgency) float64 {
	if m, ok := urgencyMultipliers[u]; ok {
		return m
	}
	return 1.0
}

// LeadValue is round(BaseValue(service) * Multiplier(urgency)).
func LeadValue(service string, u Urgency) int {
	return int(math.Round(float64(BaseValue(service)) * Multiplier(u)))
}

// Timeline derives the timeline label stored with a lead.
func Timeline(u Urgency) string {
	if label, ok := timelineLabels[u]; ok {
		return label
	}
	return timelineLabels[UrgencyNormal]
}
