package messaging

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

var twilioTracer = otel.Tracer("homehealth.internal.messaging.twilio")

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioMessenger posts SMS messages through Twilio's REST API using a
// messaging service. Failures surface to the caller as-is; the pipeline
// reports them instead of retrying.
type TwilioMessenger struct {
	accountSID          string
	authToken           string
	messagingServiceSID string
	baseURL             string
	httpClient          *http.Client
	logger              *logging.Logger
}

// TwilioOption adjusts the live sender.
type TwilioOption func(*TwilioMessenger)

// WithSendTimeout overrides the per-request timeout on the Twilio API call.
func WithSendTimeout(d time.Duration) TwilioOption {
	return func(t *TwilioMessenger) {
		if d > 0 {
			t.httpClient.Timeout = d
		}
	}
}

// NewTwilioMessenger builds the live sender with sane defaults.
func NewTwilioMessenger(accountSID, authToken, messagingServiceSID string, logger *logging.Logger, opts ...TwilioOption) *TwilioMessenger {
	if logger == nil {
		logger = logging.Default()
	}
	t := &TwilioMessenger{
		accountSID:          accountSID,
		authToken:           authToken,
		messagingServiceSID: messagingServiceSID,
		baseURL:             twilioAPIBase,
		httpClient:          &http.Client{Timeout: 10 * time.Second},
		logger:              logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send dispatches a single SMS.
func (t *TwilioMessenger) Send(ctx context.Context, to, body string) (SendResult, error) {
	if t.accountSID == "" || t.authToken == "" {
		return SendResult{}, errors.New("messaging: twilio credentials missing")
	}
	if to == "" {
		return SendResult{}, errors.New("messaging: to required")
	}
	if strings.TrimSpace(body) == "" {
		return SendResult{}, errors.New("messaging: body required")
	}

	ctx, span := twilioTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("sms.to", to))

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("MessagingServiceSid", t.messagingServiceSID)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", t.baseURL, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return SendResult{}, fmt.Errorf("messaging: build twilio request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return SendResult{}, fmt.Errorf("messaging: twilio send failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("messaging: twilio send failed: %s", formatTwilioError(resp.StatusCode, raw))
		span.RecordError(err)
		return SendResult{}, err
	}

	var parsed struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return SendResult{}, fmt.Errorf("messaging: decode twilio response: %w", err)
	}

	t.logger.Info("twilio sms sent", "to", to, "sid", parsed.SID, "status", parsed.Status)
	return SendResult{SID: parsed.SID, Status: parsed.Status}, nil
}

// Channel marks live deliveries in the log.
func (t *TwilioMessenger) Channel() Channel {
	return ChannelLive
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}

// InboundSMS is a provider-neutral view of an inbound webhook.
type InboundSMS struct {
	MessageSID string
	From       string
	To         string
	Body       string
}

// ParseTwilioWebhook reads the form fields Twilio posts on inbound SMS.
func ParseTwilioWebhook(r *http.Request) (*InboundSMS, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("messaging: parse webhook form: %w", err)
	}
	return &InboundSMS{
		MessageSID: r.FormValue("MessageSid"),
		From:       r.FormValue("From"),
		To:         r.FormValue("To"),
		Body:       r.FormValue("Body"),
	}, nil
}

// ValidateTwilioSignature checks the X-Twilio-Signature header against the
// auth token. Signature checking is a transport boundary concern; the
// pipeline behind it assumes requests are already authenticated.
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	expected := computeTwilioSignature(signaturePayload(webhookURL, r.PostForm), authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// signaturePayload is the URL followed by the form parameters concatenated
// in sorted key order, per Twilio's security documentation.
func signaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeTwilioSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
