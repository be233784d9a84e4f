package twilio

import (
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client defines the interface for sending SMS through the Twilio Messages API
type Client interface {
	SendSMS(to, body string) error
}

type clientImpl struct {
	client *twilio.RestClient
	from   string
}

// NewClient creates a new Twilio client that sends from the given number
func NewClient(accountSid, authToken, from string) Client {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &clientImpl{
		client: client,
		from:   from,
	}
}

func (c *clientImpl) SendSMS(to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("error sending sms: %w", err)
	}

	if resp.Sid != nil {
		log.Printf("[sms] message queued, sid=%s", *resp.Sid)
	}
	return nil
}
