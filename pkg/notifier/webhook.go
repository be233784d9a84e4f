package notifier

import (
	"context"
	"fmt"

	"lead-intake/pkg/clients/mailer"
	"lead-intake/pkg/models"
)

// WebhookNotifier forwards the lead JSON to an external mailer service
type WebhookNotifier struct {
	client mailer.Client
	url    string
}

// NewWebhookNotifier creates a notifier that POSTs each lead to the mailer URL, sending secret as a shared-secret header when set
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		client: mailer.NewClient(url, secret),
		url:    url,
	}
}

func (n *WebhookNotifier) Channel() string { return ChannelWebhook }

func (n *WebhookNotifier) Notify(ctx context.Context, lead models.Lead) error {
	if n.url == "" {
		return fmt.Errorf("%w: MAILER_WEBHOOK_URL is required", ErrNotConfigured)
	}
	return n.client.SendLead(ctx, lead)
}
