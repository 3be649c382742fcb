// Package schedule assembles the day schedule view an operator works from:
// the day's visits joined with patient fields, optionally reordered by the
// route optimizer and annotated with drive times between consecutive stops.
package schedule

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mimakeko/homehealth-assistant/internal/appointments"
	"github.com/mimakeko/homehealth-assistant/internal/geo"
	"github.com/mimakeko/homehealth-assistant/internal/routing"
	"github.com/mimakeko/homehealth-assistant/internal/timeparse"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

var scheduleTracer = otel.Tracer("homehealth.internal.schedule")

// Stop is one schedule entry. Drive annotations are filled only on optimized
// views, for pairs where both ends have coordinates.
type Stop struct {
	appointments.DayAppointment
	DriveToNextSeconds *int   `json:"drive_to_next_seconds,omitempty"`
	DriveToNextText    string `json:"drive_to_next_text,omitempty"`
}

// Service reads the day schedule. It never writes appointments or patients;
// geocoded coordinates are filled into the response only.
type Service struct {
	appointments appointments.Repository
	geocoder     geo.Geocoder
	distance     geo.DistanceProvider
	optimizer    *routing.Optimizer
	loc          *time.Location
	logger       *logging.Logger
}

// NewService creates the schedule service. geocoder and distance may be nil;
// the view then serves whatever coordinates the patient rows already carry
// and drive annotations fall back to great-circle estimates.
func NewService(repo appointments.Repository, geocoder geo.Geocoder, distance geo.DistanceProvider, timezone string, logger *logging.Logger) *Service {
	if repo == nil {
		panic("schedule: service requires an appointment repository")
	}
	logger = logger.Named("schedule")
	return &Service{
		appointments: repo,
		geocoder:     geocoder,
		distance:     distance,
		optimizer:    routing.NewOptimizer(distance, logger),
		loc:          timeparse.Location(timezone),
		logger:       logger,
	}
}

// Location returns the clinic timezone the service interprets dates in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// GetDay returns the day's visits ascending by start time. Stops missing
// coordinates are geocoded best-effort from the patient address; a failed
// lookup leaves the stop without coordinates and never fails the request.
func (s *Service) GetDay(ctx context.Context, day time.Time, therapist string) ([]*Stop, error) {
	rows, err := s.appointments.ListForDay(ctx, day, therapist)
	if err != nil {
		return nil, err
	}

	stops := make([]*Stop, 0, len(rows))
	for _, row := range rows {
		stop := &Stop{DayAppointment: *row}
		s.ensureCoordinates(ctx, stop)
		stops = append(stops, stop)
	}
	return stops, nil
}

// OptimizeDay returns the day's visits reordered by the route optimizer,
// with drive time to the next stop annotated on each coordinate-bearing
// pair. Read-only; the stored schedule keeps its original order.
func (s *Service) OptimizeDay(ctx context.Context, day time.Time, therapist string) ([]*Stop, error) {
	ctx, span := scheduleTracer.Start(ctx, "schedule.optimize_day")
	defer span.End()

	stops, err := s.GetDay(ctx, day, therapist)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("schedule.stops", len(stops)))

	tour := make([]*appointments.DayAppointment, len(stops))
	byStop := make(map[*appointments.DayAppointment]*Stop, len(stops))
	for i, stop := range stops {
		tour[i] = &stop.DayAppointment
		byStop[tour[i]] = stop
	}

	ordered := s.optimizer.Optimize(ctx, tour)
	out := make([]*Stop, len(ordered))
	for i, appt := range ordered {
		out[i] = byStop[appt]
	}

	s.annotateDrives(ctx, out)
	return out, nil
}

// ensureCoordinates geocodes the stop's address when the patient row has no
// stored coordinates. Lookup problems are logged and skipped.
func (s *Service) ensureCoordinates(ctx context.Context, stop *Stop) {
	if stop.HasCoordinates() || s.geocoder == nil {
		return
	}
	address := stop.FullAddress()
	if address == "" {
		return
	}
	point, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		s.logger.Warn("geocode skipped for stop", "patient", stop.PatientName, "error", err)
		return
	}
	stop.Latitude = &point.Lat
	stop.Longitude = &point.Lon
}

// annotateDrives fills drive-to-next on consecutive coordinate-bearing
// pairs. Distance lookups degrade per-pair to great-circle estimates.
func (s *Service) annotateDrives(ctx context.Context, stops []*Stop) {
	for i := 0; i+1 < len(stops); i++ {
		current, next := stops[i], stops[i+1]
		if !current.HasCoordinates() || !next.HasCoordinates() {
			continue
		}
		leg := s.legBetween(ctx, current, next)
		seconds := leg.DurationSeconds
		current.DriveToNextSeconds = &seconds
		current.DriveToNextText = leg.DurationText
	}
}

func (s *Service) legBetween(ctx context.Context, from, to *Stop) geo.Leg {
	origin := geo.Point{Lat: *from.Latitude, Lon: *from.Longitude}
	dest := geo.Point{Lat: *to.Latitude, Lon: *to.Longitude}
	if s.distance != nil {
		leg, err := s.distance.Distance(ctx, origin, dest)
		if err == nil {
			return leg
		}
		s.logger.Warn("drive annotation lookup failed, estimating leg", "error", err)
	}
	return geo.EstimateLeg(origin, dest)
}
