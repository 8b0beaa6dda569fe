package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// Service e-mails new-lead alerts to the contractor's inboxes.
type Service struct {
	email      EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewService creates a notification service. A nil sender or an empty
// recipient list makes NotifyNewLead a no-op.
func NewService(email EmailSender, recipients []string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	cleaned := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, r)
		}
	}
	return &Service{email: email, recipients: cleaned, logger: logger}
}

// Enabled reports whether alerts will actually be sent.
func (s *Service) Enabled() bool {
	return s != nil && s.email != nil && len(s.recipients) > 0
}

// NotifyNewLead sends one alert per recipient. Every recipient is attempted;
// failures are joined into the returned error.
func (s *Service) NotifyNewLead(ctx context.Context, lead *leads.Lead) error {
	if !s.Enabled() || lead == nil {
		return nil
	}

	msg := NewLeadMessage(lead)
	var errs []error
	for _, recipient := range s.recipients {
		msg.To = recipient
		if err := s.email.Send(ctx, msg); err != nil {
			s.logger.Error("notify: failed to send lead alert", "error", err, "to", recipient, "lead_id", lead.ID)
			errs = append(errs, err)
			continue
		}
		s.logger.Info("notify: lead alert sent", "to", recipient, "lead_id", lead.ID)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: lead alert: %w", errors.Join(errs...))
	}
	return nil
}

// LeadAlertCategory tags new-lead alerts in SendGrid activity.
const LeadAlertCategory = "new-lead"

// NewLeadMessage renders the alert for a lead without a recipient.
func NewLeadMessage(lead *leads.Lead) EmailMessage {
	urgency := string(lead.UrgencyLevel)
	if urgency == "" {
		urgency = string(leads.UrgencyNormal)
	}
	subject := fmt.Sprintf("🎯 New Lead - %s (%s)", lead.ServiceNeeded, lead.FullName)
	if lead.UrgencyLevel == leads.UrgencyEmergency {
		subject = "🚨 " + subject
	}

	rows := [][2]string{
		{"Name", lead.FullName},
		{"Phone", lead.Phone},
		{"Email", lead.Email},
		{"Service", lead.ServiceNeeded},
		{"Urgency", urgency},
		{"Timeline", lead.Timeline},
		{"Value", fmt.Sprintf("$%d", lead.LeadValue)},
		{"Source", lead.Source},
	}
	if lead.PropertyAddress != "" {
		rows = append(rows, [2]string{"Address", lead.PropertyAddress})
	}
	if lead.Budget != "" {
		rows = append(rows, [2]string{"Budget", lead.Budget})
	}

	var body strings.Builder
	var table strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&body, "%s: %s\n", row[0], row[1])
		fmt.Fprintf(&table, `  <tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`+"\n",
			row[0], html.EscapeString(row[1]))
	}
	fmt.Fprintf(&body, "\n%s\n\nCall within 30 minutes to win the job.", lead.ProjectDescription)

	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #f97316;">🎯 New Lead!</h2>
<table style="border-collapse: collapse; margin: 20px 0;">
%s</table>
<p style="background: #fff7ed; padding: 12px; border-radius: 8px; border-left: 4px solid #f97316;">%s</p>
</div>`, table.String(), html.EscapeString(lead.ProjectDescription))

	return EmailMessage{
		ReplyTo:     lead.Email,
		ReplyToName: lead.FullName,
		Subject:     subject,
		Body:        body.String(),
		HTML:        htmlBody,
		Category:    LeadAlertCategory,
	}
}
