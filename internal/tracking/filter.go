package tracking

import (
	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/jengzang/activity-tracker-go/internal/spatial"
)

// DefaultMinDistanceMeters is the jitter threshold below which a fix is not recorded
const DefaultMinDistanceMeters = 5.0

// PointFilter suppresses GPS jitter by requiring a minimum displacement
// from the last accepted point.
type PointFilter struct {
	MinDistanceMeters float64
}

// NewPointFilter returns a filter, falling back to the default threshold
func NewPointFilter(minDistanceMeters float64) PointFilter {
	if minDistanceMeters <= 0 {
		minDistanceMeters = DefaultMinDistanceMeters
	}
	return PointFilter{MinDistanceMeters: minDistanceMeters}
}

// Accept reports whether candidate should be added to the route.
// The first point of a session (last == nil) is always accepted. Timestamps
// are not consulted, so a late fix is judged by distance alone.
func (f PointFilter) Accept(candidate models.LocationFix, last *models.RoutePoint) bool {
	if last == nil {
		return true
	}
	meters := spatial.DistanceKm(last.Latitude, last.Longitude, candidate.Latitude, candidate.Longitude) * 1000
	return meters >= f.MinDistanceMeters
}

// DistanceAccumulator keeps the running total of accepted segments
type DistanceAccumulator struct {
	totalKm float64
}

// Add returns the length of the segment prev→next and adds it to the total.
func (a *DistanceAccumulator) Add(prev, next models.RoutePoint) float64 {
	segment := spatial.DistanceKm(prev.Latitude, prev.Longitude, next.Latitude, next.Longitude)
	a.totalKm += segment
	return segment
}

// Total returns the accumulated distance in kilometers
func (a *DistanceAccumulator) Total() float64 {
	return a.totalKm
}

// Reset clears the total
func (a *DistanceAccumulator) Reset() {
	a.totalKm = 0
}
