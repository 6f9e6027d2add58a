package service

import (
	"context"
	"fmt"

	"github.com/mmcloughlin/geohash"
	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

// geohashPrecision of 7 gives cells of roughly 150 m.
const geohashPrecision = 7

type locationService struct {
	store ports.LastLocationStore
	audit ports.LocationAuditRepository
	log   zerolog.Logger
}

// NewLocationService returns a LocationService implementation.
func NewLocationService(store ports.LastLocationStore, audit ports.LocationAuditRepository, log zerolog.Logger) ports.LocationService {
	return &locationService{store: store, audit: audit, log: log}
}

// Process records a relayed location event unless a newer one is already stored.
func (s *locationService) Process(ctx context.Context, in ports.RelayedLocation) error {
	ev := in.Event
	if ev.DeliveryID == "" || !ev.Location.Valid() || ev.Timestamp.IsZero() {
		return fmt.Errorf("process location: %w", domain.ErrInvalidLocation)
	}

	// 1. Monotonic guard and last location.
	saved, err := s.store.SaveIfNewer(ctx, domain.LastLocation{
		DeliveryID: ev.DeliveryID,
		Location:   ev.Location,
		Geohash:    geohash.EncodeWithPrecision(ev.Location.Lat, ev.Location.Lng, geohashPrecision),
		Timestamp:  ev.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("process location: save last location: %w", err)
	}
	if !saved {
		s.log.Debug().Str("delivery_id", ev.DeliveryID).Time("timestamp", ev.Timestamp).Msg("stale location skipped")
		return domain.ErrStaleLocation
	}

	// 2. Audit trail (non-fatal on failure).
	if err := s.audit.InsertLocation(ctx, &ev, in.SenderID); err != nil {
		s.log.Warn().Err(err).Str("delivery_id", ev.DeliveryID).Msg("failed to insert location audit event")
	}

	s.log.Debug().
		Str("delivery_id", ev.DeliveryID).
		Str("sender_id", in.SenderID).
		Float64("lat", ev.Location.Lat).
		Float64("lng", ev.Location.Lng).
		Msg("location recorded")

	return nil
}

func (s *locationService) LastLocation(ctx context.Context, deliveryID string) (*domain.LastLocation, error) {
	return s.store.Get(ctx, deliveryID)
}
