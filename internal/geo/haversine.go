package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// assumedSpeedKmh converts crow-flight kilometers into estimated drive
// minutes so estimated legs and road legs share one unit.
const assumedSpeedKmh = 40.0

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(from, to Point) float64 {
	lat1Rad := toRadians(from.Lat)
	lat2Rad := toRadians(to.Lat)
	deltaLat := toRadians(to.Lat - from.Lat)
	deltaLon := toRadians(to.Lon - from.Lon)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// EstimateLeg builds a Leg from great-circle distance at the assumed road
// speed. Used whenever a road lookup is unavailable or fails.
func EstimateLeg(from, to Point) Leg {
	km := HaversineKm(from, to)
	seconds := int(math.Round(km / assumedSpeedKmh * 3600))
	return Leg{
		DistanceKm:      km,
		DurationSeconds: seconds,
		DurationText:    fmt.Sprintf("~%d min", int(math.Round(float64(seconds)/60))),
		Estimated:       true,
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
