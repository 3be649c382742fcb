package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// Alerts turns pipeline events into coordinator emails. Methods log and
// return when no sender or recipient is configured; an alert is never worth
// failing the message flow that raised it.
type Alerts struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewAlerts creates the alert sender. email may be nil and to may be empty;
// alerting is then disabled.
func NewAlerts(email EmailSender, to string, logger *logging.Logger) *Alerts {
	return &Alerts{email: email, to: to, logger: logger.Named("alerts")}
}

// Enabled reports whether alerts will actually be delivered.
func (a *Alerts) Enabled() bool {
	return a.email != nil && a.to != ""
}

// UnknownSender reports an inbound SMS from a number with no patient record.
func (a *Alerts) UnknownSender(ctx context.Context, from, body string) {
	if !a.Enabled() {
		a.logger.Debug("alerting disabled, unknown sender not reported", "from", from)
		return
	}

	msg := EmailMessage{
		To:      a.to,
		Subject: fmt.Sprintf("Unrecognized SMS sender %s", from),
		Body: fmt.Sprintf(`An SMS arrived from a number with no patient record.

From: %s
Message: %s

No reply was sent and nothing was scheduled. If this is a patient, add the
number to their record and ask them to text again.`, from, truncate(body, 500)),
	}
	if err := a.email.Send(ctx, msg); err != nil {
		a.logger.Error("unknown sender alert not delivered", "from", from, "error", err)
	}
}

// DeliveryFailure reports an outbound SMS the provider refused.
func (a *Alerts) DeliveryFailure(ctx context.Context, to string, sendErr error) {
	if !a.Enabled() {
		a.logger.Debug("alerting disabled, delivery failure not reported", "to", to)
		return
	}

	msg := EmailMessage{
		To:      a.to,
		Subject: fmt.Sprintf("SMS delivery failure to %s", to),
		Body: fmt.Sprintf(`An outbound SMS could not be delivered.

To: %s
Error: %v

The message was recorded in the log but the patient did not receive it.
Consider calling them instead.`, to, sendErr),
	}
	if err := a.email.Send(ctx, msg); err != nil {
		a.logger.Error("delivery failure alert not delivered", "to", to, "error", err)
	}
}

// BuildEmailSender picks the configured transport: SendGrid when an API key
// is present, else SES when an AWS client is available, else nil.
func BuildEmailSender(sendgridKey, fromEmail, fromName string, ses *sesv2.Client, logger *logging.Logger) EmailSender {
	if sender := NewSendGridSender(SendGridConfig{APIKey: sendgridKey, FromEmail: fromEmail, FromName: fromName}, logger); sender != nil {
		return sender
	}
	if sender := NewSESSender(ses, SESConfig{FromEmail: fromEmail, FromName: fromName}, logger); sender != nil {
		return sender
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
