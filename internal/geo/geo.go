package geo

import "math"

// EarthRadiusKm is the spherical-earth approximation used for all distance
// and offset conversions.
const EarthRadiusKm = 6371.0

// WalkingMinutesPerKm converts route distance to an estimated duration at
// roughly 5 km/h.
const WalkingMinutesPerKm = 12.0

// DefaultBufferMeters is the half-width of the coverage zone drawn along a
// route segment.
const DefaultBufferMeters = 150.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Haversine returns the great-circle distance in kilometers between two
// points on a 6371 km sphere.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Bearing returns the initial bearing (forward azimuth) in radians from p1
// toward p2.
func Bearing(p1, p2 Point) float64 {
	lat1 := toRad(p1.Lat)
	lat2 := toRad(p2.Lat)
	dLon := toRad(p2.Lon - p1.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x)
}

// Offset shifts a point by distanceMeters along the given bearing (radians),
// converting meters to degrees via the spherical earth radius. Accurate
// enough for the short offsets used by route buffers.
func Offset(p Point, bearing, distanceMeters float64) Point {
	dKm := distanceMeters / 1000.0
	dLat := (dKm / EarthRadiusKm) * math.Cos(bearing)
	dLon := (dKm / (EarthRadiusKm * math.Cos(toRad(p.Lat)))) * math.Sin(bearing)
	return Point{
		Lat: p.Lat + toDeg(dLat),
		Lon: p.Lon + toDeg(dLon),
	}
}

// SegmentBuffer returns the four corners of a quadrilateral flanking the
// segment p1-p2: each endpoint offset perpendicular to the segment bearing by
// radiusMeters on both sides. This is a coarse coverage zone; it does not
// union adjacent segments or fix self-intersection at sharp turns.
func SegmentBuffer(p1, p2 Point, radiusMeters float64) [4]Point {
	b := Bearing(p1, p2)
	left := b - math.Pi/2
	right := b + math.Pi/2

	return [4]Point{
		Offset(p1, left, radiusMeters),
		Offset(p2, left, radiusMeters),
		Offset(p2, right, radiusMeters),
		Offset(p1, right, radiusMeters),
	}
}

// RouteBuffers returns one buffer quadrilateral per consecutive point pair of
// the path start -> points[0] -> ... -> points[n-1].
func RouteBuffers(start Point, points []Point, radiusMeters float64) [][4]Point {
	path := append([]Point{start}, points...)
	buffers := make([][4]Point, 0, len(points))
	for i := 0; i+1 < len(path); i++ {
		buffers = append(buffers, SegmentBuffer(path[i], path[i+1], radiusMeters))
	}
	return buffers
}

// EstimateRoute returns the cumulative great-circle distance in kilometers
// along start -> points[0] -> ... -> points[n-1] and the estimated walking
// duration in minutes. With no points both are zero.
func EstimateRoute(start Point, points []Point) (km float64, minutes int) {
	if len(points) == 0 {
		return 0, 0
	}
	prev := start
	for _, p := range points {
		km += Haversine(prev.Lat, prev.Lon, p.Lat, p.Lon)
		prev = p
	}
	return km, int(math.Round(km * WalkingMinutesPerKm))
}
