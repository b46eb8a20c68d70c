// Package alert notifies operators by mail when the audit trail degrades:
// a checkout transition committed but its activity log entry was lost.
package alert

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"tablet-checkout/internal/config"
)

type Mailer struct {
	cfg    config.AlertConfig
	logger *slog.Logger
}

// NewMailer returns nil when no recipient is configured; callers treat a nil
// Mailer as alerts disabled.
func NewMailer(cfg config.AlertConfig) *Mailer {
	if cfg.To == "" {
		return nil
	}
	return &Mailer{
		cfg:    cfg,
		logger: slog.With("component", "alert"),
	}
}

// NotifyAuditFailure sends a plain-text message about a missing activity log
// entry. Failures here are logged and swallowed; the alert path must never
// affect the checkout response.
func (m *Mailer) NotifyAuditFailure(tabletName, action string, cause error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		m.logger.Error("Invalid alert sender address", "from", m.cfg.From, "error", err)
		return
	}
	if err := msg.To(m.cfg.To); err != nil {
		m.logger.Error("Invalid alert recipient address", "to", m.cfg.To, "error", err)
		return
	}

	msg.Subject(fmt.Sprintf("[tablet-checkout] audit log entry lost for %s", tabletName))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"A %s on tablet %q committed at %s but its activity log entry could not be written.\n\n"+
			"The checkout state is correct; the history has a gap.\n\nCause: %v\n",
		action, tabletName, time.Now().UTC().Format(time.RFC3339), cause))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		m.logger.Error("Failed to build mail client", "error", err)
		return
	}

	if err := client.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send audit failure alert", "error", err)
		return
	}
	m.logger.Info("Sent audit failure alert", "tablet", tabletName, "action", action)
}
