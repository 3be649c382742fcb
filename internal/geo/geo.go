// Package geo provides geocoding and drive-distance lookups for route
// planning. A Google Maps backed provider is used when an API key is
// configured; the mock provider keeps the rest of the system working
// without one.
package geo

import (
	"context"
	"errors"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Leg describes the drive between two points.
type Leg struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds int     `json:"duration_seconds"`
	DurationText    string  `json:"duration_text"`
	// Estimated marks legs derived from great-circle distance instead of a
	// road lookup.
	Estimated bool `json:"estimated,omitempty"`
}

// Minutes returns the leg duration in minutes. Road legs and estimated legs
// compare in this unit.
func (l Leg) Minutes() float64 {
	return float64(l.DurationSeconds) / 60
}

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}

// DistanceProvider computes the drive between two coordinates.
type DistanceProvider interface {
	Distance(ctx context.Context, from, to Point) (Leg, error)
}

// Provider bundles both lookup capabilities.
type Provider interface {
	Geocoder
	DistanceProvider
}

// ErrNoResults is returned when a geocode lookup matches nothing.
var ErrNoResults = errors.New("geo: no results")
