package notifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"lead-intake/pkg/models"
)

const (
	startTLSPort    = 587
	implicitTLSPort = 465
)

type mailDialer interface {
	Send(ctx context.Context, msg *gomail.Message) error
}

type dialFunc func(host string, port int, username, password string, ssl bool, timeout time.Duration) mailDialer

// SMTPNotifier mails the lead to the owner's own address
type SMTPNotifier struct {
	host         string
	address      string
	password     string
	startTLSPort int
	implicitPort int
	timeout      time.Duration
	dial         dialFunc
}

// NewSMTPNotifier creates a notifier that authenticates as address and sends to itself
func NewSMTPNotifier(host, address, password string) *SMTPNotifier {
	return &SMTPNotifier{
		host:     host,
		address:  address,
		password: password,

		startTLSPort: startTLSPort,
		implicitPort: implicitTLSPort,
		timeout:      sessionTimeout,
		dial:         newSMTPSession,
	}
}

func (n *SMTPNotifier) Channel() string { return ChannelSMTP }

// Notify tries STARTTLS on 587 and, if that attempt fails for any reason,
// implicit TLS on 465 with the same credentials. Each attempt is bounded by
// the session timeout.
func (n *SMTPNotifier) Notify(ctx context.Context, lead models.Lead) error {
	if n.address == "" || n.password == "" {
		return fmt.Errorf("%w: OWNER_EMAIL and GMAIL_APP_PASSWORD are required", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := n.compose(lead)

	err := n.dial(n.host, n.startTLSPort, n.address, n.password, false, n.timeout).Send(ctx, msg)
	if err == nil {
		return nil
	}
	log.Printf("[smtp] port %d failed: %v", n.startTLSPort, err)

	if err := ctx.Err(); err != nil {
		return err
	}
	if fallbackErr := n.dial(n.host, n.implicitPort, n.address, n.password, true, n.timeout).Send(ctx, msg); fallbackErr != nil {
		return fmt.Errorf("smtp delivery failed on %d (%v) and %d: %w", n.startTLSPort, err, n.implicitPort, fallbackErr)
	}
	return nil
}

func (n *SMTPNotifier) compose(lead models.Lead) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.address)
	m.SetHeader("To", n.address)
	m.SetHeader("Subject", "New Lead from "+lead.Name)
	m.SetBody("text/plain", fmt.Sprintf(
		"New lead captured:\n\nName: %s\nPhone: %s\nMessage: %s\n",
		lead.Name, lead.Phone, lead.Message,
	))
	return m
}
