// Package geo provides pure geographic computation helpers and trip estimation.
package geo

import (
	"errors"
	"math"

	"haulmatch/internal/types"
)

const earthRadiusKm = 6371.0

// ErrInvalidLocation is returned when a distance computation needs
// coordinates that a location does not carry.
var ErrInvalidLocation = errors.New("location has no usable coordinates")

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// PointDistanceKm is HaversineKm over two Points.
func PointDistanceKm(a, b types.Point) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// DistanceBetween computes the great-circle distance between two locations.
// Both must carry numeric coordinates; otherwise ErrInvalidLocation.
func DistanceBetween(a, b types.Location) (float64, error) {
	pa, ok := a.Coordinates()
	if !ok {
		return 0, ErrInvalidLocation
	}
	pb, ok := b.Coordinates()
	if !ok {
		return 0, ErrInvalidLocation
	}
	if !validPoint(pa) || !validPoint(pb) {
		return 0, ErrInvalidLocation
	}
	return PointDistanceKm(pa, pb), nil
}

func validPoint(p types.Point) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		!math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
