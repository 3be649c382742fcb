// Command seed-demo loads two demo patients and today's visits into the
// configured database, so the schedule view and the SMS simulator have
// something to show on a fresh deployment.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/mimakeko/homehealth-assistant/internal/appointments"
	"github.com/mimakeko/homehealth-assistant/internal/patients"
	"github.com/mimakeko/homehealth-assistant/internal/timeparse"
)

type demoVisit struct {
	patient patients.UpsertPatientRequest
	hour    int
	minute  int
}

func coord(v float64) *float64 { return &v }

func main() {
	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		fmt.Println("DATABASE_URL is required (the in-memory mode needs no seeding)")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Printf("connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	loc := timeparse.Location(os.Getenv("CLINIC_TIMEZONE"))
	patientRepo := patients.NewPostgresRepository(pool)
	apptRepo := appointments.NewPostgresRepository(pool, loc)

	today := time.Now().In(loc)
	visits := []demoVisit{
		{
			patient: patients.UpsertPatientRequest{
				Name:      "John Doe",
				Phone:     "+14085550100",
				Address:   "1 Apple Park Way",
				City:      "Cupertino",
				State:     "CA",
				Zip:       "95014",
				Latitude:  coord(37.3349),
				Longitude: coord(-122.0090),
				Therapist: "Maria",
				Notes:     "Prefers morning visits",
			},
			hour:   9,
			minute: 30,
		},
		{
			patient: patients.UpsertPatientRequest{
				Name:      "Jane Smith",
				Phone:     "+14085550101",
				Address:   "1600 Amphitheatre Parkway",
				City:      "Mountain View",
				State:     "CA",
				Zip:       "94043",
				Latitude:  coord(37.4220),
				Longitude: coord(-122.0841),
				Therapist: "Maria",
			},
			hour:   11,
			minute: 0,
		},
	}

	for _, visit := range visits {
		patient, err := patientRepo.Upsert(ctx, &visit.patient)
		if err != nil {
			fmt.Printf("seed patient %s: %v\n", visit.patient.Name, err)
			os.Exit(1)
		}

		start := time.Date(today.Year(), today.Month(), today.Day(), visit.hour, visit.minute, 0, 0, loc)
		appt, err := apptRepo.Upsert(ctx, &appointments.UpsertAppointmentRequest{
			PatientID: patient.ID,
			Therapist: patient.Therapist,
			Start:     start,
			Status:    appointments.StatusConfirmed,
			Source:    appointments.SourceManual,
			Note:      "demo visit",
		})
		if err != nil {
			fmt.Printf("seed visit for %s: %v\n", patient.Name, err)
			os.Exit(1)
		}
		fmt.Printf("seeded %s at %s (appointment %s)\n", patient.Name, start.Format("15:04"), appt.ID)
	}

	fmt.Println("demo data ready")
}
