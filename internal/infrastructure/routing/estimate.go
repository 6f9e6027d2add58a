package routing

import (
	"context"
	"math"

	"github.com/99minutos/live-tracking/internal/api/metrics"
	"github.com/99minutos/live-tracking/internal/core/domain"
)

const defaultSpeedKmh = 25.0

// Estimate is a straight line between the points travelled at a constant
// average speed. It is used when no routing token is configured.
type Estimate struct {
	speedKmh float64
}

func NewEstimate(speedKmh float64) *Estimate {
	if speedKmh <= 0 {
		speedKmh = defaultSpeedKmh
	}
	return &Estimate{speedKmh: speedKmh}
}

func (e *Estimate) Route(ctx context.Context, from, to domain.Coordinates) (*domain.Route, error) {
	if err := ctx.Err(); err != nil {
		metrics.RouteQueriesTotal.WithLabelValues("estimate", "unavailable").Inc()
		return nil, &domain.RouteUnavailableError{Err: err}
	}

	km := domain.DistanceMeters(from, to) / 1000
	metrics.RouteQueriesTotal.WithLabelValues("estimate", "ok").Inc()
	return &domain.Route{
		Geometry:        []domain.Coordinates{from, to},
		DistanceKm:      math.Round(km*100) / 100,
		DurationMinutes: int(math.Round(km / e.speedKmh * 60)),
	}, nil
}
