// README: Trip estimator: road route via the maps provider with a geometric fallback.
package geo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"haulmatch/internal/config"
	"haulmatch/internal/logger"
	"haulmatch/internal/maps"
	"haulmatch/internal/types"
)

// Vehicle classes recognised for fallback speed selection.
const (
	VehicleLargeTruck = "large_truck"
	VehicleSmallTruck = "small_truck"
)

const (
	// largeTruckSpeedKmh etc. are the average road speeds used when no
	// routed duration is available.
	largeTruckSpeedKmh = 40.0
	smallTruckSpeedKmh = 50.0
	otherTruckSpeedKmh = 60.0

	// heavyCargoThresholdKg splits loading allowances: above it, loading
	// and unloading is budgeted at heavyLoadingMinutes.
	heavyCargoThresholdKg = 1000.0
	heavyLoadingMinutes   = 60
	lightLoadingMinutes   = 30
)

// TripEstimate is the distance/duration result handed to callers. It is
// always usable; UsedFallback records whether the geometric estimate was
// substituted for a routed one.
type TripEstimate struct {
	DistanceKm        float64
	DurationMinutes   int
	FormattedDuration string
	Polyline          string
	UsedFallback      bool
}

// RoutePlanner is the routing provider consumed by the estimator.
type RoutePlanner interface {
	DrivingRoute(ctx context.Context, from, to types.Point) (maps.DriveRoute, error)
}

// Estimator computes trip estimates, degrading to a deterministic
// geometric computation whenever the routing provider cannot be trusted.
type Estimator struct {
	planner RoutePlanner
	cfg     config.GeoConfig
}

func NewEstimator(planner RoutePlanner, cfg config.GeoConfig) *Estimator {
	return &Estimator{planner: planner, cfg: cfg}
}

// TripEstimate returns road distance and duration between two points.
// It never fails: on provider errors, timeouts, missing routes, or routes
// failing the detour sanity check it returns the geometric fallback.
func (e *Estimator) TripEstimate(ctx context.Context, from, to types.Point, vehicleClass string, weightKg float64) TripEstimate {
	directKm := PointDistanceKm(from, to)

	if e.planner == nil {
		return e.fallback(directKm, vehicleClass, weightKg)
	}

	routeCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.RouteTimeoutSec)*time.Second)
	defer cancel()

	route, err := e.planner.DrivingRoute(routeCtx, from, to)
	if err != nil {
		logger.Get().Warn("routing provider unavailable, using geometric estimate",
			zap.Error(err))
		return e.fallback(directKm, vehicleClass, weightKg)
	}

	routedKm := float64(route.DistanceMeters) / 1000.0
	if directKm > 0 && routedKm > directKm*e.cfg.DetourSanityFactor {
		// An absurd detour usually means the provider glitched, not that
		// the truck should drive it. Replace the whole result with the
		// road-inefficiency approximation of the direct distance.
		logger.Get().Warn("routed distance failed detour sanity check",
			zap.Float64("routed_km", routedKm),
			zap.Float64("direct_km", directKm))
		return e.estimateAt(directKm*e.cfg.RoadInefficiencyFactor, vehicleClass, weightKg)
	}

	durationMin := route.Duration
	if route.TrafficDuration > 0 {
		durationMin = route.TrafficDuration
	}
	durationMin += loadingAllowanceMinutes(weightKg)

	return TripEstimate{
		DistanceKm:        routedKm,
		DurationMinutes:   durationMin,
		FormattedDuration: formatMinutes(durationMin),
		Polyline:          route.Polyline,
	}
}

// fallback is the provider-unavailable path: great-circle distance and
// vehicle-class average speed.
func (e *Estimator) fallback(directKm float64, vehicleClass string, weightKg float64) TripEstimate {
	return e.estimateAt(directKm, vehicleClass, weightKg)
}

func (e *Estimator) estimateAt(distanceKm float64, vehicleClass string, weightKg float64) TripEstimate {
	durationMin := int(distanceKm/fallbackSpeedKmh(vehicleClass)*60) + loadingAllowanceMinutes(weightKg)
	return TripEstimate{
		DistanceKm:        distanceKm,
		DurationMinutes:   durationMin,
		FormattedDuration: formatMinutes(durationMin),
		UsedFallback:      true,
	}
}

func fallbackSpeedKmh(vehicleClass string) float64 {
	switch vehicleClass {
	case VehicleLargeTruck:
		return largeTruckSpeedKmh
	case VehicleSmallTruck:
		return smallTruckSpeedKmh
	default:
		return otherTruckSpeedKmh
	}
}

func loadingAllowanceMinutes(weightKg float64) int {
	if weightKg > heavyCargoThresholdKg {
		return heavyLoadingMinutes
	}
	return lightLoadingMinutes
}

func formatMinutes(min int) string {
	if min < 60 {
		return fmt.Sprintf("%dm", min)
	}
	return fmt.Sprintf("%dh %dm", min/60, min%60)
}
