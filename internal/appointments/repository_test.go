package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimakeko/homehealth-assistant/internal/patients"
)

func newTestRepo(t *testing.T) (*InMemoryRepository, *patients.Patient) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	patientRepo := patients.NewInMemoryRepository()
	patient, err := patientRepo.Upsert(context.Background(), &patients.UpsertPatientRequest{
		Name:  "John Doe",
		Phone: "+14085550100",
		City:  "Cupertino",
	})
	require.NoError(t, err)

	return NewInMemoryRepository(loc, patientRepo), patient
}

func TestUpsertSameDayCollapsesToOneRow(t *testing.T) {
	repo, patient := newTestRepo(t)
	loc := repo.loc
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Therapist: "PT Maria",
		Start:     time.Date(2024, 1, 5, 9, 0, 0, 0, loc),
		Status:    StatusPending,
		Source:    SourceInbound,
		Note:      "first message",
	})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Therapist: "PT Maria",
		Start:     time.Date(2024, 1, 5, 14, 30, 0, 0, loc),
		Status:    StatusReschedule,
		Source:    SourceInbound,
		Note:      "second message",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same patient and day must reuse the row")

	day, err := repo.ListForDay(ctx, time.Date(2024, 1, 5, 0, 0, 0, 0, loc), "")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, 14, day[0].Start.Hour())
	assert.Equal(t, StatusReschedule, day[0].Status)
	assert.Equal(t, "second message", day[0].Note)
}

func TestUpsertIsIdempotent(t *testing.T) {
	repo, patient := newTestRepo(t)
	ctx := context.Background()

	req := &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Start:     time.Date(2024, 1, 5, 9, 0, 0, 0, repo.loc),
		Status:    StatusConfirmed,
		Source:    SourceInbound,
	}
	first, err := repo.Upsert(ctx, req)
	require.NoError(t, err)
	second, err := repo.Upsert(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestUpsertDifferentDaysCreateSeparateRows(t *testing.T) {
	repo, patient := newTestRepo(t)
	ctx := context.Background()

	friday, err := repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Start:     time.Date(2024, 1, 5, 23, 30, 0, 0, repo.loc),
		Source:    SourceInbound,
	})
	require.NoError(t, err)

	// Half past midnight is the next calendar day.
	saturday, err := repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Start:     time.Date(2024, 1, 6, 0, 30, 0, 0, repo.loc),
		Source:    SourceInbound,
	})
	require.NoError(t, err)
	assert.NotEqual(t, friday.ID, saturday.ID)

	fridayList, err := repo.ListForDay(ctx, time.Date(2024, 1, 5, 12, 0, 0, 0, repo.loc), "")
	require.NoError(t, err)
	assert.Len(t, fridayList, 1)
}

func TestUpsertDefaults(t *testing.T) {
	repo, patient := newTestRepo(t)

	appt, err := repo.Upsert(context.Background(), &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Start:     time.Date(2024, 1, 5, 9, 0, 0, 0, repo.loc),
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultDurationMinutes, appt.DurationMinutes)
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, SourceManual, appt.Source)
}

func TestUpsertValidation(t *testing.T) {
	repo, patient := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, &UpsertAppointmentRequest{Start: time.Now()})
	assert.ErrorIs(t, err, ErrMissingPatientID)

	_, err = repo.Upsert(ctx, &UpsertAppointmentRequest{PatientID: patient.ID})
	assert.ErrorIs(t, err, ErrMissingStart)

	_, err = repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Start:     time.Now(),
		Status:    Status("sleeping"),
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: patient.ID,
		Start:     time.Now(),
		Source:    Source("carrier-pigeon"),
	})
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestListForDayOrdersAndFilters(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	patientRepo := patients.NewInMemoryRepository()
	ctx := context.Background()
	john, err := patientRepo.Upsert(ctx, &patients.UpsertPatientRequest{Name: "John Doe", Phone: "+14085550100"})
	require.NoError(t, err)
	jane, err := patientRepo.Upsert(ctx, &patients.UpsertPatientRequest{Name: "Jane Smith", Phone: "+14085550101"})
	require.NoError(t, err)

	repo := NewInMemoryRepository(loc, patientRepo)
	_, err = repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: jane.ID,
		Therapist: "PT Maria",
		Start:     time.Date(2024, 1, 5, 11, 0, 0, 0, loc),
		Source:    SourceManual,
	})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, &UpsertAppointmentRequest{
		PatientID: john.ID,
		Therapist: "PT Alex",
		Start:     time.Date(2024, 1, 5, 9, 30, 0, 0, loc),
		Source:    SourceManual,
	})
	require.NoError(t, err)

	day, err := repo.ListForDay(ctx, time.Date(2024, 1, 5, 0, 0, 0, 0, loc), "")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "John Doe", day[0].PatientName)
	assert.Equal(t, "Jane Smith", day[1].PatientName)
	assert.Equal(t, "+14085550100", day[0].PatientPhone)

	onlyMaria, err := repo.ListForDay(ctx, time.Date(2024, 1, 5, 0, 0, 0, 0, loc), "PT Maria")
	require.NoError(t, err)
	require.Len(t, onlyMaria, 1)
	assert.Equal(t, "Jane Smith", onlyMaria[0].PatientName)
}

func TestListForDayEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)

	day, err := repo.ListForDay(context.Background(), time.Date(2030, 6, 1, 0, 0, 0, 0, repo.loc), "")
	require.NoError(t, err)
	assert.Empty(t, day)
}
