package ports

import "github.com/99minutos/live-tracking/internal/core/domain"

// LocationPublisher sends location updates for a delivery room.
type LocationPublisher interface {
	PublishLocation(deliveryID string, location domain.Coordinates) error
}

// StatusPublisher sends order status updates for a delivery room.
type StatusPublisher interface {
	PublishStatus(deliveryID string, status domain.OrderStatus) error
}

// EventSubscriber registers observers for events received from the room.
// Registrations are additive.
type EventSubscriber interface {
	OnLocationReceived(handler func(domain.LocationEvent))
	OnStatusReceived(handler func(domain.StatusEvent))
}

// StatusBroadcaster pushes server-originated status changes to a room.
type StatusBroadcaster interface {
	BroadcastStatus(event domain.StatusEvent)
}
