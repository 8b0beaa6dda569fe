package dashboard

import (
	"context"
	"time"

	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

const alertTimeout = 15 * time.Second

// LeadAlerter is notified about every inserted lead.
type LeadAlerter interface {
	NotifyNewLead(ctx context.Context, lead *leads.Lead) error
}

// AlertListener forwards the mirror's new-lead notifications to an alerter.
// Delivery is best-effort: failures are logged and the listener keeps going.
type AlertListener struct {
	mirror  *Mirror
	alerter LeadAlerter
	logger  *logging.Logger
}

func NewAlertListener(mirror *Mirror, alerter LeadAlerter, logger *logging.Logger) *AlertListener {
	if logger == nil {
		logger = logging.Default()
	}
	return &AlertListener{mirror: mirror, alerter: alerter, logger: logger}
}

// Run blocks until ctx is done.
func (a *AlertListener) Run(ctx context.Context) {
	events, cancel := a.mirror.Listen()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != leads.ChangeInsert || ev.Notification == nil {
				continue
			}
			a.deliver(ctx, ev.Lead)
		}
	}
}

func (a *AlertListener) deliver(ctx context.Context, lead *leads.Lead) {
	ctx, cancel := context.WithTimeout(ctx, alertTimeout)
	defer cancel()
	if err := a.alerter.NotifyNewLead(ctx, lead); err != nil {
		a.logger.Warn("dashboard: new lead alert failed", "lead_id", lead.ID, "error", err)
	}
}
