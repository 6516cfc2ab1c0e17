package core

import "math"

const (
	EarthRadiusMeters      = 6371e3
	DefaultToleranceMeters = 30.0
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HaversineMeters returns the great-circle distance between a and b on a
// spherical earth. Inputs are degrees. The arithmetic is kept in this exact
// form so tolerance checks are reproducible across clients.
func HaversineMeters(a, b Coordinate) float64 {
	dLat := deg2rad(b.Latitude - a.Latitude)
	dLon := deg2rad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Latitude))*math.Cos(deg2rad(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
