package geo

import (
	"context"
	"strings"
)

// MockProvider resolves a fixed set of city names and estimates distances
// from great-circle math. It stands in for Google Maps when no API key is
// configured, which keeps demo data and tests deterministic.
type MockProvider struct{}

// NewMockProvider creates a mock geocoding and distance provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var mockCities = []struct {
	name  string
	point Point
}{
	{"cupertino", Point{Lat: 37.3230, Lon: -122.0322}},
	{"mountain view", Point{Lat: 37.3861, Lon: -122.0839}},
	{"san jose", Point{Lat: 37.3382, Lon: -121.8863}},
	{"palo alto", Point{Lat: 37.4419, Lon: -122.1430}},
	{"sunnyvale", Point{Lat: 37.3688, Lon: -122.0363}},
	{"santa clara", Point{Lat: 37.3541, Lon: -121.9552}},
	{"san francisco", Point{Lat: 37.7749, Lon: -122.4194}},
	{"new york", Point{Lat: 40.7128, Lon: -74.0060}},
	{"chicago", Point{Lat: 41.8781, Lon: -87.6298}},
}

// Geocode matches the address against the known city table.
func (m *MockProvider) Geocode(ctx context.Context, address string) (Point, error) {
	needle := strings.ToLower(address)
	for _, city := range mockCities {
		if strings.Contains(needle, city.name) {
			return city.point, nil
		}
	}
	return Point{}, ErrNoResults
}

// Distance estimates the leg with great-circle math.
func (m *MockProvider) Distance(ctx context.Context, from, to Point) (Leg, error) {
	return EstimateLeg(from, to), nil
}
