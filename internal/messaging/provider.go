package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// SendResult reports the provider's answer to a send.
type SendResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Messenger dispatches one outbound SMS. Implementations are selected once
// at startup; handlers never branch on mode themselves.
type Messenger interface {
	Send(ctx context.Context, to, body string) (SendResult, error)
	// Channel reports which channel value outbound log entries should carry.
	Channel() Channel
}

// MockMessenger pretends to deliver and only logs. It keeps the whole
// pipeline exercisable without Twilio credentials.
type MockMessenger struct {
	logger *logging.Logger
}

// NewMockMessenger creates the no-delivery messenger.
func NewMockMessenger(logger *logging.Logger) *MockMessenger {
	if logger == nil {
		logger = logging.Default()
	}
	return &MockMessenger{logger: logger}
}

// Send logs the message and fabricates a provider id.
func (m *MockMessenger) Send(ctx context.Context, to, body string) (SendResult, error) {
	sid := fmt.Sprintf("mock-%d", time.Now().UnixMilli())
	m.logger.Info("mock sms send", "to", to, "sid", sid, "body_length", len(body))
	return SendResult{SID: sid, Status: "mock-sent"}, nil
}

// Channel marks mock deliveries in the log.
func (m *MockMessenger) Channel() Channel {
	return ChannelMock
}

// ProviderConfig carries the credentials required to build the live sender.
// SendTimeout, when positive, bounds each Twilio API call.
type ProviderConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	SendTimeout         time.Duration
}

// BuildMessenger selects the live Twilio sender when all credentials are
// present and falls back to the mock otherwise. It returns the messenger and
// the mode label surfaced by the health endpoint.
func BuildMessenger(cfg ProviderConfig, logger *logging.Logger) (Messenger, string) {
	if logger == nil {
		logger = logging.Default()
	}

	var missing []string
	if cfg.AccountSID == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if cfg.MessagingServiceSID == "" {
		missing = append(missing, "TWILIO_MESSAGING_SERVICE_SID")
	}
	if len(missing) == 0 {
		logger.Info("twilio messenger configured")
		return NewTwilioMessenger(cfg.AccountSID, cfg.AuthToken, cfg.MessagingServiceSID, logger,
			WithSendTimeout(cfg.SendTimeout)), "live"
	}

	logger.Info("falling back to mock messenger", "missing", strings.Join(missing, ", "))
	return NewMockMessenger(logger), "mock"
}
