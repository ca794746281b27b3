package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		if d := Haversine(44.8378, -0.5792, 44.8378, -0.5792); d != 0 {
			t.Errorf("expected 0, got %f", d)
		}
	})

	t.Run("bordeaux short hop", func(t *testing.T) {
		// Start point to first waypoint of a typical route.
		d := Haversine(44.8378, -0.5792, 44.8400, -0.5800)
		if d < 0.24 || d > 0.28 {
			t.Errorf("expected ~0.26 km, got %f", d)
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		a := Haversine(44.8378, -0.5792, 48.8566, 2.3522)
		b := Haversine(48.8566, 2.3522, 44.8378, -0.5792)
		if math.Abs(a-b) > 1e-9 {
			t.Errorf("expected symmetric distance, got %f vs %f", a, b)
		}
	})

	t.Run("bordeaux to paris magnitude", func(t *testing.T) {
		d := Haversine(44.8378, -0.5792, 48.8566, 2.3522)
		if d < 480 || d > 520 {
			t.Errorf("expected ~500 km, got %f", d)
		}
	})
}

func TestEstimateRoute(t *testing.T) {
	start := Point{Lat: 44.8378, Lon: -0.5792}

	t.Run("no waypoints resets to zero", func(t *testing.T) {
		km, minutes := EstimateRoute(start, nil)
		if km != 0 || minutes != 0 {
			t.Errorf("expected (0, 0), got (%f, %d)", km, minutes)
		}
	})

	t.Run("single waypoint", func(t *testing.T) {
		km, minutes := EstimateRoute(start, []Point{{Lat: 44.8400, Lon: -0.5800}})
		if km < 0.24 || km > 0.28 {
			t.Errorf("expected ~0.26 km, got %f", km)
		}
		if minutes != 3 {
			t.Errorf("expected 3 minutes, got %d", minutes)
		}
	})

	t.Run("distance is the sum of segment distances", func(t *testing.T) {
		wp1 := Point{Lat: 44.8400, Lon: -0.5800}
		wp2 := Point{Lat: 44.8425, Lon: -0.5750}
		km, _ := EstimateRoute(start, []Point{wp1, wp2})

		want := Haversine(start.Lat, start.Lon, wp1.Lat, wp1.Lon) +
			Haversine(wp1.Lat, wp1.Lon, wp2.Lat, wp2.Lon)
		if math.Abs(km-want) > 1e-9 {
			t.Errorf("expected %f, got %f", want, km)
		}
	})

	t.Run("duration follows the walking heuristic", func(t *testing.T) {
		// 1 km should read as 12 minutes.
		km, minutes := EstimateRoute(Point{Lat: 0, Lon: 0}, []Point{{Lat: 0.0089932, Lon: 0}})
		if math.Abs(km-1.0) > 0.01 {
			t.Fatalf("expected ~1 km test fixture, got %f", km)
		}
		if minutes != 12 {
			t.Errorf("expected 12 minutes, got %d", minutes)
		}
	})
}

func TestSegmentBuffer(t *testing.T) {
	p1 := Point{Lat: 44.8378, Lon: -0.5792}
	p2 := Point{Lat: 44.8400, Lon: -0.5800}

	quad := SegmentBuffer(p1, p2, 150)

	t.Run("corners stay near the segment", func(t *testing.T) {
		for i, c := range quad {
			d1 := Haversine(c.Lat, c.Lon, p1.Lat, p1.Lon)
			d2 := Haversine(c.Lat, c.Lon, p2.Lat, p2.Lon)
			if math.Min(d1, d2)*1000 > 200 {
				t.Errorf("corner %d is %f km from both endpoints", i, math.Min(d1, d2))
			}
		}
	})

	t.Run("opposite corners straddle the segment", func(t *testing.T) {
		// Corners 0 and 3 flank p1; the distance between them should be
		// roughly twice the buffer radius.
		across := Haversine(quad[0].Lat, quad[0].Lon, quad[3].Lat, quad[3].Lon) * 1000
		if across < 250 || across > 350 {
			t.Errorf("expected ~300 m across the buffer, got %f m", across)
		}
	})
}

func TestRouteBuffers(t *testing.T) {
	start := Point{Lat: 44.8378, Lon: -0.5792}
	points := []Point{
		{Lat: 44.8400, Lon: -0.5800},
		{Lat: 44.8425, Lon: -0.5750},
	}

	t.Run("one quad per consecutive pair", func(t *testing.T) {
		buffers := RouteBuffers(start, points, DefaultBufferMeters)
		if len(buffers) != 2 {
			t.Errorf("expected 2 buffers, got %d", len(buffers))
		}
	})

	t.Run("no waypoints no buffers", func(t *testing.T) {
		if buffers := RouteBuffers(start, nil, DefaultBufferMeters); len(buffers) != 0 {
			t.Errorf("expected no buffers, got %d", len(buffers))
		}
	})
}

func TestPolygonGeometry(t *testing.T) {
	quad := SegmentBuffer(Point{Lat: 44.8378, Lon: -0.5792}, Point{Lat: 44.8400, Lon: -0.5800}, 150)
	g := PolygonGeometry(quad)

	coords, ok := g["coordinates"].([][][]float64)
	if !ok {
		t.Fatalf("unexpected coordinates type %T", g["coordinates"])
	}
	ring := coords[0]
	if len(ring) != 5 {
		t.Fatalf("expected closed 5-point ring, got %d points", len(ring))
	}
	if ring[0][0] != ring[4][0] || ring[0][1] != ring[4][1] {
		t.Error("ring is not closed")
	}
}
