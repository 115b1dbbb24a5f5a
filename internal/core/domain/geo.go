package domain

import "math"

// EarthRadiusKm is the spherical Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Coordinates represents a geographic point in degrees.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Valid reports whether the point is a usable coordinate pair. NaN and
// out-of-range values must never reach the trigonometric functions.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Haversine returns the great-circle distance between two points in kilometres.
// Callers are responsible for validating both points with Valid first.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceMeters returns the great-circle distance between two points in metres.
func DistanceMeters(a, b Coordinates) float64 {
	return Haversine(a, b) * 1000
}

// WithinRadius reports whether b lies within thresholdMeters of a.
func WithinRadius(a, b Coordinates, thresholdMeters float64) bool {
	return DistanceMeters(a, b) <= thresholdMeters
}
