// Package notify sends booking confirmations to patients.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers a confirmation message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender creates a sender from account credentials.
func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing twilio credentials")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, from: from}, nil
}

// Send delivers one SMS. The ten-digit national number is normalized to E.164.
func (t *TwilioSender) Send(_ context.Context, to, message string) error {
	if !strings.HasPrefix(to, "+") {
		to = "+1" + to
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(to)
	params.SetBody(message)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}

var _ Sender = (*TwilioSender)(nil)

// NopSender drops every message. Used when SMS is not configured.
type NopSender struct{}

func (NopSender) Send(context.Context, string, string) error { return nil }
