package bootstrap

import (
	"strings"

	appconfig "github.com/wolfman30/contractor-leads/internal/config"
	"github.com/wolfman30/contractor-leads/internal/notify"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// BuildEmailSender returns SendGrid when an API key is configured and the
// logging stub otherwise.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if cfg != nil {
		if sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}

// BuildLeadAlerter returns the new-lead e-mail service, or nil when no
// recipient is configured.
func BuildLeadAlerter(cfg *appconfig.Config, logger *logging.Logger) *notify.Service {
	if cfg == nil || strings.TrimSpace(cfg.NewLeadNotifyEmail) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	recipients := strings.Split(cfg.NewLeadNotifyEmail, ",")
	svc := notify.NewService(BuildEmailSender(cfg, logger), recipients, logger)
	if !svc.Enabled() {
		return nil
	}
	logger.Info("new lead e-mail alerts enabled", "recipients", len(recipients))
	return svc
}
