package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Graph API root for the WhatsApp Cloud API
const DefaultBaseURL = "https://graph.facebook.com/v19.0"

const requestTimeout = 5 * time.Second

// Client defines the interface for interacting with the WhatsApp Cloud API
type Client interface {
	SendText(ctx context.Context, to, body string) error
}

type clientImpl struct {
	token      string
	phoneID    string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new WhatsApp client. An empty baseURL selects DefaultBaseURL.
func NewClient(token, phoneID, baseURL string) Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &clientImpl{
		token:      token,
		phoneID:    phoneID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (c *clientImpl) SendText(ctx context.Context, to, body string) error {
	sendURL := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)

	payload := textMessage{MessagingProduct: "whatsapp", To: to, Type: "text"}
	payload.Text.Body = body

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("error from WhatsApp API (%d): %s", resp.StatusCode, string(respBody))
	}

	var sendResponse struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &sendResponse); err == nil && len(sendResponse.Messages) > 0 {
		log.Printf("[whatsapp] message accepted, id=%s", sendResponse.Messages[0].ID)
	}
	return nil
}
