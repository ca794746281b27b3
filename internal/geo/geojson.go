package geo

// Feature is a GeoJSON feature with free-form properties.
type Feature struct {
	Type       string         `json:"type"` // "Feature"
	Geometry   map[string]any `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the payload shape map widgets consume.
type FeatureCollection struct {
	Type     string    `json:"type"` // "FeatureCollection"
	Features []Feature `json:"features"`
	Count    int       `json:"count"`
}

// NewFeatureCollection wraps features with the count the API exposes.
func NewFeatureCollection(features []Feature) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Count:    len(features),
	}
}

// PointGeometry builds a GeoJSON Point ([lon, lat] per the GeoJSON spec).
func PointGeometry(p Point) map[string]any {
	return map[string]any{
		"type":        "Point",
		"coordinates": []float64{p.Lon, p.Lat},
	}
}

// PolygonGeometry builds a closed GeoJSON Polygon ring from a buffer quad.
func PolygonGeometry(quad [4]Point) map[string]any {
	ring := make([][]float64, 0, 5)
	for _, p := range quad {
		ring = append(ring, []float64{p.Lon, p.Lat})
	}
	ring = append(ring, []float64{quad[0].Lon, quad[0].Lat})
	return map[string]any{
		"type":        "Polygon",
		"coordinates": [][][]float64{ring},
	}
}

// LineGeometry builds a GeoJSON LineString through the given path.
func LineGeometry(path []Point) map[string]any {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lon, p.Lat})
	}
	return map[string]any{
		"type":        "LineString",
		"coordinates": coords,
	}
}
