package messaging

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mimakeko/homehealth-assistant/internal/appointments"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// Handler exposes the SMS endpoints: the simulator, operator send, and the
// provider webhook.
type Handler struct {
	pipeline   *Pipeline
	authToken  string
	webhookURL string
	logger     *logging.Logger
}

// NewHandler creates the SMS handler. authToken enables webhook signature
// validation; empty disables it (mock mode has no provider to sign with).
// webhookURL overrides the signed URL when the service sits behind a proxy
// that rewrites Host.
func NewHandler(pipeline *Pipeline, authToken, webhookURL string, logger *logging.Logger) *Handler {
	return &Handler{
		pipeline:   pipeline,
		authToken:  authToken,
		webhookURL: webhookURL,
		logger:     logger.Named("sms_handler"),
	}
}

type simulateRequest struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type simulateResponse struct {
	OK          bool                      `json:"ok"`
	Intent      string                    `json:"intent"`
	Echo        string                    `json:"echo"`
	ParseStatus string                    `json:"parse_status"`
	Reply       string                    `json:"reply,omitempty"`
	Schedule    *appointments.Appointment `json:"schedule,omitempty"`
}

// SimulateSMS handles POST /simulate-sms. The body runs through the same
// pipeline as a provider webhook, recorded under the simulate channel.
func (h *Handler) SimulateSMS(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing body"})
		return
	}

	result := h.pipeline.HandleInbound(r.Context(), InboundMessage{
		From:    req.From,
		Body:    req.Body,
		Channel: ChannelSimulate,
	})

	resp := simulateResponse{
		OK:          true,
		Intent:      string(result.Intent),
		Echo:        req.Body,
		ParseStatus: string(result.ParseStatus),
		Schedule:    result.Appointment,
	}
	if result.ReplySent {
		resp.Reply = result.Reply
	}
	respondJSON(w, http.StatusOK, resp)
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
	SID    string `json:"sid,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SendSMS handles POST /send-sms for operator-initiated outbound messages.
func (h *Handler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	req.To = strings.TrimSpace(req.To)
	req.Body = strings.TrimSpace(req.Body)
	if req.To == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing to"})
		return
	}
	if req.Body == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "missing body"})
		return
	}

	result, err := h.pipeline.Send(r.Context(), req.To, req.Body, "auto-confirm")
	if err != nil {
		respondJSON(w, http.StatusBadGateway, sendResponse{Status: "send_failed", Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, sendResponse{Status: result.Status, SID: result.SID})
}

// TwilioWebhook handles POST /webhook/sms from the SMS provider. Signed
// requests are verified when an auth token is configured; the reply TwiML is
// empty because auto-replies go out through the REST API.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	if h.authToken != "" {
		if !ValidateTwilioSignature(r, h.authToken, h.signedURL(r)) {
			h.logger.Warn("webhook signature rejected", "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	inbound, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("webhook parse failed", "error", err)
		http.Error(w, "bad webhook payload", http.StatusBadRequest)
		return
	}

	h.pipeline.HandleInbound(r.Context(), InboundMessage{
		From:              inbound.From,
		To:                inbound.To,
		Body:              inbound.Body,
		Channel:           ChannelLive,
		ProviderMessageID: inbound.MessageSID,
	})

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response></Response>`))
}

// signedURL reconstructs the public URL the provider signed against,
// preferring forwarded headers set by the fronting proxy.
func (h *Handler) signedURL(r *http.Request) string {
	if h.webhookURL != "" {
		return h.webhookURL
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
