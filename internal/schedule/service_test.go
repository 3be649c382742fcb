package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/mimakeko/homehealth-assistant/internal/appointments"
	"github.com/mimakeko/homehealth-assistant/internal/geo"
	"github.com/mimakeko/homehealth-assistant/internal/patients"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

var testDay = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

type fixture struct {
	patients *patients.InMemoryRepository
	appts    *appointments.InMemoryRepository
}

func newFixture() *fixture {
	patientRepo := patients.NewInMemoryRepository()
	return &fixture{
		patients: patientRepo,
		appts:    appointments.NewInMemoryRepository(time.UTC, patientRepo),
	}
}

func (f *fixture) addVisit(t *testing.T, req *patients.UpsertPatientRequest, hour int) *patients.Patient {
	t.Helper()
	patient, err := f.patients.Upsert(context.Background(), req)
	if err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	_, err = f.appts.Upsert(context.Background(), &appointments.UpsertAppointmentRequest{
		PatientID: patient.ID,
		Therapist: patient.Therapist,
		Start:     time.Date(2024, 1, 5, hour, 0, 0, 0, time.UTC),
		Status:    appointments.StatusConfirmed,
		Source:    appointments.SourceManual,
	})
	if err != nil {
		t.Fatalf("seed appointment: %v", err)
	}
	return patient
}

func coords(lat, lon float64) (*float64, *float64) {
	return &lat, &lon
}

func TestGetDayGeocodesMissingCoordinates(t *testing.T) {
	f := newFixture()
	patient := f.addVisit(t, &patients.UpsertPatientRequest{
		Name:  "John Doe",
		Phone: "+14085550100",
		City:  "Cupertino",
		State: "CA",
	}, 9)

	svc := NewService(f.appts, geo.NewMockProvider(), geo.NewMockProvider(), "", logging.Default())
	stops, err := svc.GetDay(context.Background(), testDay, "")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(stops))
	}
	if !stops[0].HasCoordinates() {
		t.Fatal("expected geocoded coordinates on the stop")
	}
	if *stops[0].Latitude != 37.3230 {
		t.Errorf("expected mock Cupertino latitude, got %v", *stops[0].Latitude)
	}

	// Geocoding is view-only; the stored patient row stays without coordinates.
	stored, err := f.patients.GetByID(context.Background(), patient.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.HasCoordinates() {
		t.Error("expected stored patient to remain without coordinates")
	}
}

func TestGetDayGeocodeFailureLeavesStop(t *testing.T) {
	f := newFixture()
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name:  "John Doe",
		Phone: "+14085550100",
		City:  "Atlantis",
	}, 9)

	svc := NewService(f.appts, geo.NewMockProvider(), nil, "", logging.Default())
	stops, err := svc.GetDay(context.Background(), testDay, "")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(stops) != 1 {
		t.Fatalf("expected 1 stop, got %d", len(stops))
	}
	if stops[0].HasCoordinates() {
		t.Error("expected stop without coordinates after failed geocode")
	}
}

func TestGetDayWithoutGeocoder(t *testing.T) {
	f := newFixture()
	lat, lon := coords(37.3230, -122.0322)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name:     "John Doe",
		Phone:    "+14085550100",
		Latitude: lat, Longitude: lon,
	}, 9)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name:  "Jane Smith",
		Phone: "+14085550101",
		City:  "Mountain View",
	}, 11)

	svc := NewService(f.appts, nil, nil, "", logging.Default())
	stops, err := svc.GetDay(context.Background(), testDay, "")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(stops))
	}
	if !stops[0].HasCoordinates() {
		t.Error("expected stored coordinates to pass through")
	}
	if stops[1].HasCoordinates() {
		t.Error("expected no geocoding without a geocoder")
	}
}

func TestGetDayAscendingAndTherapistFilter(t *testing.T) {
	f := newFixture()
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "Jane Smith", Phone: "+14085550101", Therapist: "Maria",
	}, 11)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "John Doe", Phone: "+14085550100", Therapist: "Maria",
	}, 9)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "Pat Jones", Phone: "+14085550102", Therapist: "Alex",
	}, 10)

	svc := NewService(f.appts, nil, nil, "", logging.Default())

	all, err := svc.GetDay(context.Background(), testDay, "")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(all))
	}
	if all[0].PatientName != "John Doe" || all[1].PatientName != "Pat Jones" {
		t.Errorf("expected ascending start order, got %q then %q", all[0].PatientName, all[1].PatientName)
	}

	maria, err := svc.GetDay(context.Background(), testDay, "Maria")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(maria) != 2 {
		t.Fatalf("expected 2 stops for Maria, got %d", len(maria))
	}
}

func TestOptimizeDayOrdersAndAnnotates(t *testing.T) {
	f := newFixture()
	sfLat, sfLon := coords(37.7749, -122.4194)
	cupLat, cupLon := coords(37.3230, -122.0322)
	mvLat, mvLon := coords(37.3861, -122.0839)

	// Scheduled order puts the far stop in the middle; the tour should walk
	// Cupertino to Mountain View to San Francisco instead.
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "Cup", Phone: "+14085550100", Latitude: cupLat, Longitude: cupLon,
	}, 9)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "SF", Phone: "+14085550101", Latitude: sfLat, Longitude: sfLon,
	}, 10)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "MV", Phone: "+14085550102", Latitude: mvLat, Longitude: mvLon,
	}, 11)

	svc := NewService(f.appts, nil, geo.NewMockProvider(), "", logging.Default())
	stops, err := svc.OptimizeDay(context.Background(), testDay, "")
	if err != nil {
		t.Fatalf("OptimizeDay: %v", err)
	}
	if len(stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(stops))
	}
	want := []string{"Cup", "MV", "SF"}
	for i, name := range want {
		if stops[i].PatientName != name {
			t.Fatalf("expected order %v, got %q at %d", want, stops[i].PatientName, i)
		}
	}

	for i := 0; i < 2; i++ {
		if stops[i].DriveToNextSeconds == nil || *stops[i].DriveToNextSeconds <= 0 {
			t.Errorf("expected drive seconds on stop %d", i)
		}
		if stops[i].DriveToNextText == "" {
			t.Errorf("expected drive text on stop %d", i)
		}
	}
	if stops[2].DriveToNextSeconds != nil {
		t.Error("expected no drive annotation on the last stop")
	}
}

func TestOptimizeDayCoordlessSinksWithoutAnnotation(t *testing.T) {
	f := newFixture()
	cupLat, cupLon := coords(37.3230, -122.0322)
	mvLat, mvLon := coords(37.3861, -122.0839)

	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "NoCoords", Phone: "+14085550103", City: "Atlantis",
	}, 8)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "Cup", Phone: "+14085550100", Latitude: cupLat, Longitude: cupLon,
	}, 9)
	f.addVisit(t, &patients.UpsertPatientRequest{
		Name: "MV", Phone: "+14085550102", Latitude: mvLat, Longitude: mvLon,
	}, 11)

	svc := NewService(f.appts, geo.NewMockProvider(), geo.NewMockProvider(), "", logging.Default())
	stops, err := svc.OptimizeDay(context.Background(), testDay, "")
	if err != nil {
		t.Fatalf("OptimizeDay: %v", err)
	}
	if len(stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(stops))
	}
	if stops[2].PatientName != "NoCoords" {
		t.Fatalf("expected coordinate-less stop last, got %q", stops[2].PatientName)
	}
	if stops[1].DriveToNextSeconds != nil {
		t.Error("expected no annotation into a coordinate-less stop")
	}
	if stops[0].DriveToNextSeconds == nil {
		t.Error("expected annotation between the locatable pair")
	}
}

func TestOptimizeDayEmpty(t *testing.T) {
	f := newFixture()
	svc := NewService(f.appts, nil, nil, "", logging.Default())
	stops, err := svc.OptimizeDay(context.Background(), testDay, "")
	if err != nil {
		t.Fatalf("OptimizeDay: %v", err)
	}
	if len(stops) != 0 {
		t.Fatalf("expected empty schedule, got %d stops", len(stops))
	}
}
