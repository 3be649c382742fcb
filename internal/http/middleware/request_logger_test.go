package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mimakeko/homehealth-assistant/internal/observability/metrics"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

func TestRequestLoggerFeedsMetrics(t *testing.T) {
	m := metrics.New(nil)
	handler := RequestLogger(logging.Default(), m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	snap := m.Snapshot()
	if snap.Requests != 1 {
		t.Errorf("requests = %d, want 1", snap.Requests)
	}
	if snap.Errors != 0 {
		t.Errorf("errors = %d, want 0", snap.Errors)
	}
}

func TestRequestLoggerCountsServerErrors(t *testing.T) {
	m := metrics.New(nil)
	handler := RequestLogger(logging.Default(), m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	snap := m.Snapshot()
	if snap.Errors != 1 {
		t.Errorf("errors = %d, want 1", snap.Errors)
	}
}

func TestRequestLoggerNilMetrics(t *testing.T) {
	handler := RequestLogger(logging.Default(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}
