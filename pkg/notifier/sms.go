package notifier

import (
	"context"
	"fmt"

	"lead-intake/pkg/clients/twilio"
	"lead-intake/pkg/models"
)

// SMSNotifier texts the owner through Twilio. The Twilio SDK takes no
// context, so ctx is only checked before the call.
type SMSNotifier struct {
	client twilio.Client
	to     string
}

// NewSMSNotifier creates a notifier that texts each lead to the given phone number
func NewSMSNotifier(client twilio.Client, to string) *SMSNotifier {
	return &SMSNotifier{client: client, to: to}
}

func (n *SMSNotifier) Channel() string { return ChannelSMS }

func (n *SMSNotifier) Notify(ctx context.Context, lead models.Lead) error {
	if n.client == nil || n.to == "" {
		return fmt.Errorf("%w: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER and OWNER_PHONE are required", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.client.SendSMS(n.to, formatShort(lead))
}
