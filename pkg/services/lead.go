package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"lead-intake/pkg/config"
	"lead-intake/pkg/models"
	"lead-intake/pkg/notifier"
	"lead-intake/pkg/queue"
	"lead-intake/pkg/store"
	"lead-intake/pkg/utils"
)

// DebugLead is the fixed sample sent by SendTestNotification
var DebugLead = models.Lead{Name: "Debug", Phone: "000", Message: "Test email path"}

// LeadService defines the interface for capturing leads and notifying the owner
type LeadService interface {
	CaptureLead(ctx context.Context, lead models.Lead) error
	ListLeads(ctx context.Context) ([]models.Lead, error)
	SendTestNotification(ctx context.Context) error
	DeliverNotification(ctx context.Context, job queue.Job)
	CredentialStatus() models.CredentialStatus
	Channel() string
}

type leadServiceImpl struct {
	store    store.Store
	notifier notifier.Notifier
	queue    queue.Queue
	config   *config.Config
}

// NewLeadService creates a new lead service
func NewLeadService(
	store store.Store,
	notifier notifier.Notifier,
	queue queue.Queue,
	config *config.Config,
) LeadService {
	return &leadServiceImpl{
		store:    store,
		notifier: notifier,
		queue:    queue,
		config:   config,
	}
}

// CaptureLead stores the lead and, when enabled, queues a notification.
// Nothing after the store append can fail the call.
func (s *leadServiceImpl) CaptureLead(ctx context.Context, lead models.Lead) error {
	if err := s.store.Append(ctx, lead); err != nil {
		return fmt.Errorf("error storing lead: %w", err)
	}
	log.Printf("[lead] captured: name=%s phone=%s", lead.Name, utils.MaskPhone(lead.Phone))

	if !s.config.SendEmail {
		log.Printf("[lead] SEND_EMAIL is off; skipping notification")
		return nil
	}

	job := queue.NewJob(lead)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Printf("[lead] could not queue notification %s: %v", job.ID, err)
		return nil
	}
	log.Printf("[lead] queued %s notification %s", s.notifier.Channel(), job.ID)
	return nil
}

func (s *leadServiceImpl) ListLeads(ctx context.Context) ([]models.Lead, error) {
	return s.store.List(ctx)
}

// DeliverNotification is the queue handler. Every failure ends here as a log line.
func (s *leadServiceImpl) DeliverNotification(ctx context.Context, job queue.Job) {
	start := time.Now()
	log.Printf("[notify] starting %s send for job %s (%s)", s.notifier.Channel(), job.ID, job.Lead.Name)

	if err := s.notifier.Notify(ctx, job.Lead); err != nil {
		log.Printf("[notify error] job %s: %v", job.ID, err)
		return
	}
	log.Printf("[notify] job %s sent via %s in %s", job.ID, s.notifier.Channel(), time.Since(start).Round(time.Millisecond))
}

// SendTestNotification delivers DebugLead synchronously so operators can see the error
func (s *leadServiceImpl) SendTestNotification(ctx context.Context) error {
	return s.notifier.Notify(ctx, DebugLead)
}

func (s *leadServiceImpl) Channel() string {
	return s.notifier.Channel()
}

func (s *leadServiceImpl) CredentialStatus() models.CredentialStatus {
	c := s.config
	return models.CredentialStatus{
		Channel:            s.notifier.Channel(),
		SendEmail:          c.SendEmail,
		OwnerEmailSet:      c.OwnerEmail != "",
		AppPasswordSet:     c.GmailAppPassword != "",
		WhatsAppTokenSet:   c.WhatsAppToken != "",
		WhatsAppPhoneIDSet: c.WhatsAppPhoneID != "",
		WhatsAppOwnerSet:   c.WhatsAppOwnerNumber != "",
		MailerURLSet:       c.MailerWebhookURL != "",
		MailerSecretSet:    c.MailerWebhookSecret != "",
		TwilioSet:          c.HasTwilio(),
		QueueHealthy:       s.queue.Healthy(),
	}
}
