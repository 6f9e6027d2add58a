package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// RelayedLocation is a location event received by the hub, tagged with its sender.
type RelayedLocation struct {
	Event    domain.LocationEvent
	SenderID string
}

// LocationService records relayed location events.
type LocationService interface {
	Process(ctx context.Context, in RelayedLocation) error
	LastLocation(ctx context.Context, deliveryID string) (*domain.LastLocation, error)
}
