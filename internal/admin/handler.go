package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mimakeko/homehealth-assistant/internal/http/middleware"
	"github.com/mimakeko/homehealth-assistant/internal/messaging"
	"github.com/mimakeko/homehealth-assistant/internal/observability/metrics"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

const defaultPageSize = 50

// Status is the service identity block reported on the public endpoints and
// the debug dashboard. Filled once at startup from configuration.
type Status struct {
	Service   string
	Version   string
	BuildID   string
	GitCommit string
	Region    string
	Mode      string
	SMSReady  bool
	MapsReady bool
}

// Archiver persists a CSV export snapshot somewhere durable.
type Archiver interface {
	ArchiveCSV(ctx context.Context, data []byte) (string, error)
}

// Handler serves the operator surface: health and metrics JSON, the message
// browser, exports, and the HTML pages.
type Handler struct {
	status   Status
	store    messaging.Store
	metrics  *metrics.Metrics
	reporter *Reporter
	archiver Archiver
	auth     *middleware.TokenAuth
	pageSize int
	logger   *logging.Logger
}

// NewHandler creates the admin handler. reporter and archiver may be nil;
// the report endpoint then serves empty aggregates and archiving refuses.
func NewHandler(status Status, store messaging.Store, m *metrics.Metrics, reporter *Reporter, archiver Archiver, auth *middleware.TokenAuth, pageSize int, logger *logging.Logger) *Handler {
	if store == nil {
		panic("admin: handler requires a message store")
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return &Handler{
		status:   status,
		store:    store,
		metrics:  m,
		reporter: reporter,
		archiver: archiver,
		auth:     auth,
		pageSize: pageSize,
		logger:   logger.Named("admin"),
	}
}

type healthResponse struct {
	Mode          string  `json:"mode"`
	Service       string  `json:"service"`
	Status        string  `json:"status"`
	TwilioReady   bool    `json:"twilio_ready"`
	MapsReady     bool    `json:"maps_ready"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type smsStatus struct {
	TwilioReady bool `json:"twilio_ready"`
}

type metricsResponse struct {
	Status        string                  `json:"status"`
	Service       string                  `json:"service"`
	Mode          string                  `json:"mode"`
	UptimeSeconds float64                 `json:"uptime_seconds"`
	Healthz       metrics.RequestSnapshot `json:"healthz"`
	SMS           smsStatus               `json:"sms"`
	BuildID       string                  `json:"build_id"`
	Region        string                  `json:"region"`
	GitCommit     string                  `json:"git_commit"`
	Version       string                  `json:"version"`
}

// Root handles GET /. A minimal identity blurb for load balancers and
// humans poking the base URL.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": h.status.Service,
		"status":  "ok",
		"mode":    h.status.Mode,
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Mode:          h.status.Mode,
		Service:       h.status.Service,
		Status:        "ok",
		TwilioReady:   h.status.SMSReady,
		MapsReady:     h.status.MapsReady,
		UptimeSeconds: h.metrics.UptimeSeconds(),
	})
}

// MetricsJSON handles GET /metrics, the human-readable counter snapshot.
// The machine-readable exposition lives at /metrics.prom.
func (h *Handler) MetricsJSON(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, metricsResponse{
		Status:        "ok",
		Service:       h.status.Service,
		Mode:          h.status.Mode,
		UptimeSeconds: h.metrics.UptimeSeconds(),
		Healthz:       h.metrics.Snapshot(),
		SMS:           smsStatus{TwilioReady: h.status.SMSReady},
		BuildID:       h.status.BuildID,
		Region:        h.status.Region,
		GitCommit:     h.status.GitCommit,
		Version:       h.status.Version,
	})
}

// Messages handles GET /admin/messages?limit=&search=. The response is a
// bare JSON array, newest first.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	limit := h.pageSize
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	respondJSON(w, http.StatusOK, h.listFailOpen(r.Context(), limit, search))
}

// Intents handles GET /admin/intents with counts from the in-process
// counters, largest first.
func (h *Handler) Intents(w http.ResponseWriter, r *http.Request) {
	counts := h.metrics.IntentCounts()
	out := make([]IntentRow, 0, len(counts))
	for name, n := range counts {
		out = append(out, IntentRow{Intent: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Intent < out[j].Intent
	})
	respondJSON(w, http.StatusOK, map[string]any{"intents": out})
}

// Report handles GET /admin/report?days=, aggregates read from the stored
// log rather than the in-process counters.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	days := 14
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 1 && parsed <= 90 {
			days = parsed
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"volume":  h.reporter.DailyVolume(r.Context(), days),
		"intents": h.reporter.IntentTotals(r.Context()),
	})
}

// ExportCSV handles GET /admin/export.csv.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data := h.exportCSV(r.Context())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ArchiveExport handles POST /admin/export/archive, writing the current
// CSV snapshot to the configured archive bucket.
func (h *Handler) ArchiveExport(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "archive not configured"})
		return
	}
	data := h.exportCSV(r.Context())
	key, err := h.archiver.ArchiveCSV(r.Context(), data)
	if err != nil {
		h.logger.Error("export archive failed", "error", err)
		respondJSON(w, http.StatusBadGateway, map[string]string{"error": "archive failed"})
		return
	}
	h.logger.Info("export archived", "key", key)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "key": key})
}

// listFailOpen reads the log, treating an unreadable store as empty.
func (h *Handler) listFailOpen(ctx context.Context, limit int, search string) []*messaging.Message {
	msgs, err := h.store.List(ctx, limit, search)
	if err != nil {
		h.logger.Error("message list failed, serving empty log", "error", err)
		return []*messaging.Message{}
	}
	if msgs == nil {
		msgs = []*messaging.Message{}
	}
	return msgs
}

// exportCSV renders the export at the list cap, newest first.
func (h *Handler) exportCSV(ctx context.Context) []byte {
	msgs := h.listFailOpen(ctx, messaging.MaxListLimit, "")

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"direction", "kind", "body", "to", "note", "ts"})
	for _, m := range msgs {
		_ = cw.Write([]string{
			string(m.Direction),
			string(m.Channel),
			m.Body,
			m.To,
			m.Note,
			m.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	return buf.Bytes()
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
