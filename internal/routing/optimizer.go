// Package routing orders a day's home visits to cut drive time. The tour is
// greedy nearest-neighbor, which is good enough at single-clinic scale and
// keeps the result explainable to a coordinator.
package routing

import (
	"context"
	"sort"

	"github.com/mimakeko/homehealth-assistant/internal/appointments"
	"github.com/mimakeko/homehealth-assistant/internal/geo"
	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// Optimizer reorders appointment stops by estimated drive time. It never
// mutates stored appointments; callers receive a new ordering of the same
// elements.
type Optimizer struct {
	distance geo.DistanceProvider
	logger   *logging.Logger
}

// NewOptimizer creates an optimizer. distance may be nil, in which case all
// legs are estimated from great-circle math.
func NewOptimizer(distance geo.DistanceProvider, logger *logging.Logger) *Optimizer {
	return &Optimizer{distance: distance, logger: logger}
}

// Optimize returns a permutation of stops. Stops without coordinates are
// left out of the tour and sink to the end in their original relative
// order. With fewer than two locatable stops the input order is preserved.
func (o *Optimizer) Optimize(ctx context.Context, stops []*appointments.DayAppointment) []*appointments.DayAppointment {
	var locatable []int
	for i, stop := range stops {
		if stop.HasCoordinates() {
			locatable = append(locatable, i)
		}
	}
	if len(locatable) < 2 {
		out := make([]*appointments.DayAppointment, len(stops))
		copy(out, stops)
		return out
	}

	// The tour starts at the earliest scheduled locatable stop.
	startIdx := locatable[0]
	for _, i := range locatable[1:] {
		if stops[i].Start.Before(stops[startIdx].Start) {
			startIdx = i
		}
	}

	remaining := make(map[int]bool, len(locatable))
	for _, i := range locatable {
		remaining[i] = true
	}
	delete(remaining, startIdx)

	order := []int{startIdx}
	current := stopPoint(stops[startIdx])
	for len(remaining) > 0 {
		bestIdx := -1
		bestMinutes := 0.0
		// Iterate in input order so cost ties resolve deterministically.
		for _, i := range locatable {
			if !remaining[i] {
				continue
			}
			minutes := o.legMinutes(ctx, current, stopPoint(stops[i]))
			if bestIdx == -1 || minutes < bestMinutes {
				bestIdx = i
				bestMinutes = minutes
			}
		}
		order = append(order, bestIdx)
		current = stopPoint(stops[bestIdx])
		delete(remaining, bestIdx)
	}

	// Rank visited stops by tour position; everything else ranks after them
	// and keeps its original relative order through the stable sort.
	sink := len(order)
	rank := make([]int, len(stops))
	for i := range rank {
		rank[i] = sink
	}
	for pos, i := range order {
		rank[i] = pos
	}

	idx := make([]int, len(stops))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return rank[idx[a]] < rank[idx[b]] })

	out := make([]*appointments.DayAppointment, len(stops))
	for pos, i := range idx {
		out[pos] = stops[i]
	}
	return out
}

// legMinutes is the tour cost function. Road lookups and estimates share
// the drive-minutes unit, so a per-pair fallback cannot skew the greedy
// comparison.
func (o *Optimizer) legMinutes(ctx context.Context, from, to geo.Point) float64 {
	if o.distance != nil {
		leg, err := o.distance.Distance(ctx, from, to)
		if err == nil {
			return leg.Minutes()
		}
		o.logger.Warn("drive time lookup failed, estimating leg", "error", err)
	}
	return geo.EstimateLeg(from, to).Minutes()
}

func stopPoint(stop *appointments.DayAppointment) geo.Point {
	return geo.Point{Lat: *stop.Latitude, Lon: *stop.Longitude}
}
