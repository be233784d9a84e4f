// Package notifier delivers best-effort alerts about newly captured leads.
// Exactly one channel is active per process; it is chosen once from
// configuration by New.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"lead-intake/pkg/clients/twilio"
	"lead-intake/pkg/config"
	"lead-intake/pkg/models"
)

// Channel names accepted by NOTIFY_CHANNEL
const (
	ChannelSMTP     = "smtp"
	ChannelWhatsApp = "whatsapp"
	ChannelWebhook  = "webhook"
	ChannelSMS      = "sms"
)

var (
	ErrNotConfigured    = errors.New("notification channel not configured")
	ErrAmbiguousChannel = errors.New("more than one notification channel configured")
	ErrUnknownChannel   = errors.New("unknown notification channel")
)

// Notifier sends a lead to an external channel
type Notifier interface {
	Channel() string
	Notify(ctx context.Context, lead models.Lead) error
}

// New picks the notifier for this deployment. An explicit cfg.NotifyChannel
// always wins. Otherwise the single channel with credentials present is used,
// falling back to SMTP when none are.
func New(cfg *config.Config) (Notifier, error) {
	channel := cfg.NotifyChannel
	if channel == "" {
		var configured []string
		if cfg.HasSMTP() {
			configured = append(configured, ChannelSMTP)
		}
		if cfg.HasWhatsApp() {
			configured = append(configured, ChannelWhatsApp)
		}
		if cfg.HasMailerWebhook() {
			configured = append(configured, ChannelWebhook)
		}
		if cfg.HasTwilio() {
			configured = append(configured, ChannelSMS)
		}

		switch len(configured) {
		case 0:
			channel = ChannelSMTP
		case 1:
			channel = configured[0]
		default:
			return nil, fmt.Errorf("%w: %v (set NOTIFY_CHANNEL)", ErrAmbiguousChannel, configured)
		}
	}

	switch channel {
	case ChannelSMTP:
		return NewSMTPNotifier(cfg.SMTPHost, cfg.OwnerEmail, cfg.GmailAppPassword), nil
	case ChannelWhatsApp:
		return NewWhatsAppNotifier(cfg.WhatsAppToken, cfg.WhatsAppPhoneID, cfg.WhatsAppOwnerNumber, cfg.WhatsAppAPIURL), nil
	case ChannelWebhook:
		return NewWebhookNotifier(cfg.MailerWebhookURL, cfg.MailerWebhookSecret), nil
	case ChannelSMS:
		var client twilio.Client
		if cfg.HasTwilio() {
			client = twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		}
		return NewSMSNotifier(client, cfg.OwnerPhone), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
}

// formatShort renders a lead for chat-style channels
func formatShort(lead models.Lead) string {
	return fmt.Sprintf("New lead\nName: %s\nPhone: %s\nMessage: %s", lead.Name, lead.Phone, lead.Message)
}
