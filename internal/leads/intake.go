package leads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/contractor-leads/internal/observability/metrics"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// NotificationKind distinguishes success toasts from error toasts.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is the transient user-facing message produced by a submission.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	LeadValue   int              `json:"leadValue,omitempty"`
	Service     string           `json:"service,omitempty"`
}

// Outcome is the result of a submission attempt that reached the store.
type Outcome struct {
	Lead         *Lead
	Notification Notification
	// WebhookErr is informational only; it never affects success.
	WebhookErr error
}

// IntakeService turns a customer form into a persisted lead.
type IntakeService struct {
	repo    Repository
	webhook Webhook
	metrics *metrics.LeadMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewIntakeService wires the primary store and the optional webhook.
func NewIntakeService(repo Repository, webhook Webhook, m *metrics.LeadMetrics, logger *logging.Logger) *IntakeService {
	if logger == nil {
		logger = logging.Default()
	}
	if wc, ok := webhook.(*WebhookClient); ok && wc == nil {
		webhook = nil
	}
	return &IntakeService{
		repo:    repo,
		webhook: webhook,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// BuildLead resolves the service label, values the lead and assembles the
// record with lifecycle defaults. The form must already be valid.
func (s *IntakeService) BuildLead(form *Form, source string) *Lead {
	service := strings.TrimSpace(form.EffectiveService())
	urgency, _ := ParseUrgency(form.Urgency)
	now := s.now()
	return &Lead{
		FullName:           strings.TrimSpace(form.Name),
		Phone:              strings.TrimSpace(form.Phone),
		Email:              strings.TrimSpace(form.Email),
		ServiceNeeded:      service,
		ProjectDescription: form.Description,
		UrgencyLevel:       urgency,
		Budget:             form.Budget,
		PropertyAddress:    strings.TrimSpace(form.Address),
		Timeline:           Timeline(urgency),
		LeadValue:          LeadValue(service, urgency),
		Source:             source,
		Status:             StatusNew,
		Notes:              "",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Submit validates, values and stores the form. A validation failure returns
// a *ValidationError and no outcome. A store failure returns an outcome with
// the single error notification and leaves the form untouched. On success the
// form is reset.
func (s *IntakeService) Submit(ctx context.Context, form *Form) (*Outcome, error) {
	return s.SubmitFrom(ctx, form, form.Source())
}

// SubmitFrom is Submit with an explicit source label.
func (s *IntakeService) SubmitFrom(ctx context.Context, form *Form, source string) (*Outcome, error) {
	if err := form.Validate(); err != nil {
		s.metrics.ObserveSubmission(source, "invalid")
		return nil, err
	}
	lead := s.BuildLead(form, source)

	stored, storeErr, webhookErr := s.dualWrite(ctx, lead)

	if storeErr != nil {
		s.metrics.ObserveSubmission(source, "store_error")
		s.logger.Error("lead store write failed", "service", lead.ServiceNeeded, "source", source, "error", storeErr)
		return &Outcome{
			Notification: Notification{
				Kind:        NotificationError,
				Title:       "Error",
				Description: "Failed to capture lead. Please try again.",
			},
			WebhookErr: webhookErr,
		}, fmt.Errorf("leads: submit: %w: %w", ErrStoreWrite, storeErr)
	}

	s.metrics.ObserveSubmission(source, "success")
	s.logger.Info("lead captured", "lead_id", stored.ID, "service", stored.ServiceNeeded, "lead_value", stored.LeadValue, "source", source)
	form.Reset()
	return &Outcome{
		Lead: stored,
		Notification: Notification{
			Kind:        NotificationSuccess,
			Title:       "🔥 Premium Lead Captured!",
			Description: fmt.Sprintf("High-value %s lead worth $%d secured. Contractors will contact you within hours!", stored.ServiceNeeded, stored.LeadValue),
			LeadValue:   stored.LeadValue,
			Service:     stored.ServiceNeeded,
		},
		WebhookErr: webhookErr,
	}, nil
}

// dualWrite sends the lead to the store and the webhook concurrently and
// waits for both. Neither goroutine returns an error to the group so that a
// failure on one side never cancels the other.
func (s *IntakeService) dualWrite(ctx context.Context, lead *Lead) (*Lead, error, error) {
	var (
		stored     *Lead
		storeErr   error
		webhookErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	primary := *lead
	g.Go(func() error {
		start := time.Now()
		stored, storeErr = s.repo.Create(gctx, &primary)
		s.metrics.ObserveStoreLatency("insert", time.Since(start).Seconds())
		return nil
	})
	if s.webhook != nil {
		secondary := *lead
		g.Go(func() error {
			webhookErr = s.webhook.Deliver(gctx, &secondary)
			s.metrics.ObserveWebhook(webhookErr == nil)
			if webhookErr != nil {
				s.logger.Warn("lead webhook failed", "service", secondary.ServiceNeeded, "error", webhookErr)
			}
			return nil
		})
	}
	_ = g.Wait()

	if storeErr == nil && stored == nil {
		storeErr = fmt.Errorf("leads: store returned no lead")
	}
	return stored, storeErr, webhookErr
}
