package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// RouteProvider answers origin/destination route queries. Failures are
// reported as *domain.RouteUnavailableError.
type RouteProvider interface {
	Route(ctx context.Context, from, to domain.Coordinates) (*domain.Route, error)
}
