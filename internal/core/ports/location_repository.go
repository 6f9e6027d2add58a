package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// LastLocationStore keeps the latest location per delivery.
type LastLocationStore interface {
	// SaveIfNewer stores loc unless a location with an equal or later
	// timestamp is already stored. It reports whether loc was stored.
	SaveIfNewer(ctx context.Context, loc domain.LastLocation) (bool, error)
	Get(ctx context.Context, deliveryID string) (*domain.LastLocation, error)
}

// LocationAuditRepository persists relayed location events.
type LocationAuditRepository interface {
	InsertLocation(ctx context.Context, event *domain.LocationEvent, senderID string) error
}
