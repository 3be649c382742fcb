package schedule

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mimakeko/homehealth-assistant/internal/http/middleware"
	"github.com/mimakeko/homehealth-assistant/internal/patients"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

func newTestHandler(t *testing.T, f *fixture, mapsReady bool) *Handler {
	t.Helper()
	svc := NewService(f.appts, nil, nil, "", logging.Default())
	auth := middleware.NewTokenAuth("secret", "operator", "", 0, logging.Default())
	return NewHandler(svc, auth, mapsReady, logging.Default())
}

func TestGetScheduleReturnsDay(t *testing.T) {
	f := newFixture()
	lat, lon := coords(37.3230, -122.0322)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "John Doe", Phone: "+14085550100", Latitude: lat, Longitude: lon,
	}, 9)
	h := newTestHandler(t, f, false)

	req := httptest.NewRequest(http.MethodGet, "/schedule?date=2024-01-05", nil)
	rec := httptest.NewRecorder()
	h.GetSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Appointments []map[string]any `json:"appointments"`
		Status       string           `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
	if len(resp.Appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(resp.Appointments))
	}
	stop := resp.Appointments[0]
	if stop["patient_name"] != "John Doe" {
		t.Errorf("expected patient_name John Doe, got %v", stop["patient_name"])
	}
	if _, ok := stop["start_iso"]; !ok {
		t.Error("expected start_iso field")
	}
	if _, ok := stop["lat"]; !ok {
		t.Error("expected lat field on a coordinate-bearing stop")
	}
}

func TestGetScheduleEmptyDay(t *testing.T) {
	h := newTestHandler(t, newFixture(), false)

	req := httptest.NewRequest(http.MethodGet, "/schedule?date=2024-01-05", nil)
	rec := httptest.NewRecorder()
	h.GetSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"appointments":[]`) {
		t.Errorf("expected empty appointments array, got %s", body)
	}
}

func TestGetScheduleInvalidDate(t *testing.T) {
	h := newTestHandler(t, newFixture(), false)

	req := httptest.NewRequest(http.MethodGet, "/schedule?date=Jan-5", nil)
	rec := httptest.NewRecorder()
	h.GetSchedule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOptimizeScheduleResponseShape(t *testing.T) {
	f := newFixture()
	cupLat, cupLon := coords(37.3230, -122.0322)
	mvLat, mvLon := coords(37.3861, -122.0839)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "Cup", Phone: "+14085550100", Latitude: cupLat, Longitude: cupLon, Therapist: "Maria",
	}, 9)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "MV", Phone: "+14085550101", Latitude: mvLat, Longitude: mvLon, Therapist: "Maria",
	}, 11)
	h := newTestHandler(t, f, true)

	body := strings.NewReader(`{"date":"2024-01-05","therapist":"Maria"}`)
	req := httptest.NewRequest(http.MethodPost, "/schedule/optimize", body)
	rec := httptest.NewRecorder()
	h.OptimizeSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp optimizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Date != "2024-01-05" {
		t.Errorf("expected date echoed, got %q", resp.Date)
	}
	if resp.Therapist != "Maria" {
		t.Errorf("expected therapist Maria, got %q", resp.Therapist)
	}
	if !resp.DriveTime || !resp.OK {
		t.Errorf("expected drive_time and ok true, got %+v", resp)
	}
	if len(resp.Appointments) != 2 {
		t.Fatalf("expected 2 appointments, got %d", len(resp.Appointments))
	}
	if resp.Appointments[0].DriveToNextSeconds == nil {
		t.Error("expected drive annotation on the first stop")
	}
}

func TestOptimizeScheduleDefaults(t *testing.T) {
	h := newTestHandler(t, newFixture(), false)

	req := httptest.NewRequest(http.MethodPost, "/schedule/optimize", nil)
	rec := httptest.NewRecorder()
	h.OptimizeSchedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp optimizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Therapist != "unknown" {
		t.Errorf("expected therapist unknown, got %q", resp.Therapist)
	}
	if resp.Date != time.Now().UTC().Format(dateLayout) {
		t.Errorf("expected today's date, got %q", resp.Date)
	}
	if resp.DriveTime {
		t.Error("expected drive_time false without maps")
	}
}

func TestSchedulePageRequiresToken(t *testing.T) {
	h := newTestHandler(t, newFixture(), false)

	req := httptest.NewRequest(http.MethodGet, "/ui/schedule", nil)
	rec := httptest.NewRecorder()
	h.SchedulePage(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Enter Access Token") {
		t.Error("expected the token form on unauthorized access")
	}
}

func TestSchedulePageSetsSessionCookie(t *testing.T) {
	h := newTestHandler(t, newFixture(), false)

	req := httptest.NewRequest(http.MethodGet, "/ui/schedule?token=secret", nil)
	rec := httptest.NewRecorder()
	h.SchedulePage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Day Schedule") {
		t.Error("expected the schedule page body")
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected a session cookie")
	}
	if session.MaxAge != int((5 * 24 * time.Hour).Seconds()) {
		t.Errorf("expected 5 day cookie, got max-age %d", session.MaxAge)
	}

	// The minted cookie must authorize a later API request on its own.
	followUp := httptest.NewRequest(http.MethodGet, "/schedule", nil)
	followUp.AddCookie(session)
	if !h.auth.Authorized(followUp) {
		t.Error("expected the session cookie to authorize subsequent requests")
	}
}

func TestSchedulePageWrongToken(t *testing.T) {
	h := newTestHandler(t, newFixture(), false)

	req := httptest.NewRequest(http.MethodGet, "/ui/schedule?token=wrong", nil)
	rec := httptest.NewRecorder()
	h.SchedulePage(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("expected no cookie on a rejected token")
	}
}
