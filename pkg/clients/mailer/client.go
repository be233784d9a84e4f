package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lead-intake/pkg/models"
)

// SecretHeader carries the shared secret expected by the mailer endpoint
const SecretHeader = "X-Webhook-Secret"

const requestTimeout = 8 * time.Second

// Client defines the interface for forwarding leads to an external mailer webhook
type Client interface {
	SendLead(ctx context.Context, lead models.Lead) error
}

type clientImpl struct {
	url        string
	secret     string
	httpClient *http.Client
}

// NewClient creates a new mailer webhook client
func NewClient(url, secret string) Client {
	return &clientImpl{
		url:        url,
		secret:     secret,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (c *clientImpl) SendLead(ctx context.Context, lead models.Lead) error {
	jsonPayload, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(SecretHeader, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling mailer webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("error from mailer webhook (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}
