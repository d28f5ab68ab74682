package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox([]Point{{1, 5}, {-2, 3}, {4, -1}})
	assert.Equal(t, -2.0, minLat)
	assert.Equal(t, -1.0, minLon)
	assert.Equal(t, 4.0, maxLat)
	assert.Equal(t, 5.0, maxLon)
}

func TestRegionFor(t *testing.T) {
	assert.Equal(t, DefaultRegion, RegionFor(nil))

	r := RegionFor([]Point{{48.0, 2.0}, {48.2, 2.4}})
	assert.InDelta(t, 48.1, r.Latitude, 1e-9)
	assert.InDelta(t, 2.2, r.Longitude, 1e-9)
	assert.InDelta(t, 0.3, r.LatitudeDelta, 1e-9)
	assert.InDelta(t, 0.6, r.LongitudeDelta, 1e-9)

	single := RegionFor([]Point{{10, 20}})
	assert.Equal(t, Region{Latitude: 10, Longitude: 20}, single)
}
