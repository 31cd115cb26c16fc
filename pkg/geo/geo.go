// Package geo provides great-circle distance math for delivery routing.
package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineDistanceKm returns the great-circle distance in kilometers between
// two points given in degrees. Symmetric in its arguments; zero for identical
// points.
func HaversineDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
