package chat

import "fmt"

// QuickAction is a one-tap shortcut shown in the widget.
type QuickAction struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Urgent  bool   `json:"urgent,omitempty"`
	Popular bool   `json:"popular,omitempty"`
}

var quickActions = []QuickAction{
	{Label: "🚨 Emergency Repair", Value: "emergency", Urgent: true},
	{Label: "🏠 Roofing", Value: "roofing", Popular: true},
	{Label: "❄️ AC/HVAC", Value: "hvac", Popular: true},
	{Label: "🔧 Plumbing", Value: "plumbing", Popular: true},
	{Label: "⚡ Electrical", Value: "electrical"},
	{Label: "🏊 Pool Service", Value: "pool"},
	{Label: "🌪️ Hurricane Prep", Value: "hurricane", Urgent: true},
}

// QuickActions returns the fixed menu.
func QuickActions() []QuickAction {
	return append([]QuickAction(nil), quickActions...)
}

// QuickActionUtterance synthesizes the text sent for a quick action value.
func QuickActionUtterance(value string) (string, error) {
	for _, qa := range quickActions {
		if qa.Value == value {
			return fmt.Sprintf("I need help with %s", value), nil
		}
	}
	return "", ErrUnknownQuickAction
}
