// README: Shared value objects used across modules.
package types

// ID is an opaque entity identifier.
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Money is an integer amount in the smallest currency unit.
type Money struct {
	Amount   int64
	Currency string
}

// Location is a route endpoint: a free-form address, resolved
// coordinates, or both. Coordinates are optional because bookings may be
// created from an address alone and geocoded later.
type Location struct {
	Address string
	Lat     *float64
	Lng     *float64
}

// Coordinates returns the location's point and whether both coordinates
// are present.
func (l Location) Coordinates() (Point, bool) {
	if l.Lat == nil || l.Lng == nil {
		return Point{}, false
	}
	return Point{Lat: *l.Lat, Lng: *l.Lng}, true
}

// LocationAt builds a Location from a coordinate pair.
func LocationAt(lat, lng float64) Location {
	return Location{Lat: &lat, Lng: &lng}
}
