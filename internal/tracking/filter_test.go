package tracking

import (
	"math"
	"testing"

	"github.com/jengzang/activity-tracker-go/internal/models"
	"github.com/stretchr/testify/assert"
)

// metersNorth returns the fix d meters due north of (lat, lon).
func metersNorth(lat, lon, d float64) models.LocationFix {
	const metersPerDegree = 6371000.0 * math.Pi / 180
	return models.LocationFix{Latitude: lat + d/metersPerDegree, Longitude: lon}
}

// haversineKm is an independent reference implementation.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 6371 * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func TestPointFilterAcceptsFirstPoint(t *testing.T) {
	f := NewPointFilter(5)
	assert.True(t, f.Accept(models.LocationFix{Latitude: 10, Longitude: 10}, nil))
}

func TestPointFilterThreshold(t *testing.T) {
	f := NewPointFilter(5)
	last := models.RoutePoint{Latitude: 45, Longitude: 7}

	for _, d := range []float64{5.01, 6, 10, 100, 5000} {
		assert.True(t, f.Accept(metersNorth(45, 7, d), &last), "%.2fm should be accepted", d)
	}
	for _, d := range []float64{0, 0.5, 2, 4.9, 4.99} {
		assert.False(t, f.Accept(metersNorth(45, 7, d), &last), "%.2fm should be rejected", d)
	}
}

func TestPointFilterIgnoresTimestampAndAccuracy(t *testing.T) {
	f := NewPointFilter(5)
	last := models.RoutePoint{Latitude: 45, Longitude: 7, TimestampMs: 10_000}

	accuracy := 500.0
	late := metersNorth(45, 7, 20)
	late.TimestampMs = 1_000
	late.Accuracy = &accuracy
	assert.True(t, f.Accept(late, &last))
}

func TestNewPointFilterDefault(t *testing.T) {
	assert.Equal(t, DefaultMinDistanceMeters, NewPointFilter(0).MinDistanceMeters)
	assert.Equal(t, DefaultMinDistanceMeters, NewPointFilter(-1).MinDistanceMeters)
	assert.Equal(t, 12.5, NewPointFilter(12.5).MinDistanceMeters)
}

func TestDistanceAccumulatorEquatorSegment(t *testing.T) {
	var acc DistanceAccumulator
	seg := acc.Add(models.RoutePoint{Latitude: 1, Longitude: 1}, models.RoutePoint{Latitude: 1, Longitude: 2})
	assert.InDelta(t, 111.19, seg, 0.02)
	assert.Equal(t, seg, acc.Total())
}

func TestDistanceAccumulatorSyntheticRoute(t *testing.T) {
	route := []models.RoutePoint{
		{Latitude: 1, Longitude: 1},
		{Latitude: 1, Longitude: 2},
		{Latitude: 2, Longitude: 2},
		{Latitude: 2.5, Longitude: 2.5},
		{Latitude: -1, Longitude: 3},
	}

	var acc DistanceAccumulator
	want := 0.0
	for i := 1; i < len(route); i++ {
		acc.Add(route[i-1], route[i])
		want += haversineKm(route[i-1].Latitude, route[i-1].Longitude, route[i].Latitude, route[i].Longitude)
	}
	assert.InDelta(t, want, acc.Total(), 1e-9)

	acc.Reset()
	assert.Zero(t, acc.Total())
}
