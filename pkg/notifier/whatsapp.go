package notifier

import (
	"context"
	"fmt"

	"lead-intake/pkg/clients/whatsapp"
	"lead-intake/pkg/models"
)

// WhatsAppNotifier sends a text message to the owner's WhatsApp number
type WhatsAppNotifier struct {
	client whatsapp.Client
	to     string
	ready  bool
}

// NewWhatsAppNotifier creates a notifier that sends each lead as a text message to the owner number
func NewWhatsAppNotifier(token, phoneID, to, baseURL string) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		client: whatsapp.NewClient(token, phoneID, baseURL),
		to:     to,
		ready:  token != "" && phoneID != "" && to != "",
	}
}

func (n *WhatsAppNotifier) Channel() string { return ChannelWhatsApp }

func (n *WhatsAppNotifier) Notify(ctx context.Context, lead models.Lead) error {
	if !n.ready {
		return fmt.Errorf("%w: WHATSAPP_TOKEN, WHATSAPP_PHONE_ID and WHATSAPP_OWNER_NUMBER are required", ErrNotConfigured)
	}
	return n.client.SendText(ctx, n.to, formatShort(lead))
}
