package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"haulmatch/internal/types"
)

// DriveRoute is the raw routing result consumed by the trip estimator.
type DriveRoute struct {
	DistanceMeters  int
	Duration        int // minutes
	TrafficDuration int // minutes, 0 when the provider returned none
	Polyline        string
}

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// DrivingRoute requests a driving route between two coordinates. Tolls and
// highways are allowed; ferries are avoided since freight never boards them.
// Departure "now" makes the provider include a traffic-adjusted duration.
func (s *RouteService) DrivingRoute(ctx context.Context, from, to types.Point) (DriveRoute, error) {
	r := &maps.DirectionsRequest{
		Origin:        fmt.Sprintf("%f,%f", from.Lat, from.Lng),
		Destination:   fmt.Sprintf("%f,%f", to.Lat, to.Lng),
		Mode:          maps.TravelModeDriving,
		Avoid:         []maps.Avoid{maps.AvoidFerries},
		DepartureTime: "now",
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return DriveRoute{}, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return DriveRoute{}, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return DriveRoute{
		DistanceMeters:  leg.Distance.Meters,
		Duration:        int(leg.Duration.Minutes()),
		TrafficDuration: int(leg.DurationInTraffic.Minutes()),
		Polyline:        routes[0].OverviewPolyline.Points,
	}, nil
}
