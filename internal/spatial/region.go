package spatial

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// Region is a map viewport: a center and the span shown around it, in degrees
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// RegionPadding widens the route's bounding box so the route is not drawn edge to edge
const RegionPadding = 1.5

// DefaultRegion is shown for a route without points
var DefaultRegion = Region{
	Latitude:       48.8566,
	Longitude:      2.3522,
	LatitudeDelta:  0.05,
	LongitudeDelta: 0.05,
}

// BoundingBox calculates the bounding box of a set of points
// Returns (minLat, minLon, maxLat, maxLon)
func BoundingBox(points []Point) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon

	for _, p := range points[1:] {
		minLat = min(minLat, p.Lat)
		maxLat = max(maxLat, p.Lat)
		minLon = min(minLon, p.Lon)
		maxLon = max(maxLon, p.Lon)
	}

	return minLat, minLon, maxLat, maxLon
}

// RegionFor centers a viewport on the bounding box of points
func RegionFor(points []Point) Region {
	if len(points) == 0 {
		return DefaultRegion
	}

	minLat, minLon, maxLat, maxLon := BoundingBox(points)
	return Region{
		Latitude:       (minLat + maxLat) / 2,
		Longitude:      (minLon + maxLon) / 2,
		LatitudeDelta:  (maxLat - minLat) * RegionPadding,
		LongitudeDelta: (maxLon - minLon) * RegionPadding,
	}
}
