package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubLastLocations struct {
	saveErr error
	byID    map[string]domain.LastLocation
}

func newStubLastLocations() *stubLastLocations {
	return &stubLastLocations{byID: make(map[string]domain.LastLocation)}
}

func (s *stubLastLocations) SaveIfNewer(_ context.Context, loc domain.LastLocation) (bool, error) {
	if s.saveErr != nil {
		return false, s.saveErr
	}
	if prev, ok := s.byID[loc.DeliveryID]; ok && !loc.Timestamp.After(prev.Timestamp) {
		return false, nil
	}
	s.byID[loc.DeliveryID] = loc
	return true, nil
}

func (s *stubLastLocations) Get(_ context.Context, deliveryID string) (*domain.LastLocation, error) {
	loc, ok := s.byID[deliveryID]
	if !ok {
		return nil, domain.ErrLocationNotFound
	}
	return &loc, nil
}

type stubLocationAudit struct {
	insertErr error
	inserted  []*domain.LocationEvent
	senders   []string
}

func (a *stubLocationAudit) InsertLocation(_ context.Context, e *domain.LocationEvent, senderID string) error {
	if a.insertErr != nil {
		return a.insertErr
	}
	a.inserted = append(a.inserted, e)
	a.senders = append(a.senders, senderID)
	return nil
}

func relayed(id string, lat, lng float64, ts time.Time) ports.RelayedLocation {
	return ports.RelayedLocation{
		Event:    domain.LocationEvent{DeliveryID: id, Location: domain.Coordinates{Lat: lat, Lng: lng}, Timestamp: ts},
		SenderID: "DEL001",
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestLocationService_Process_Success(t *testing.T) {
	store := newStubLastLocations()
	audit := &stubLocationAudit{}
	svc := NewLocationService(store, audit, zerolog.Nop())

	ts := time.Now().UTC()
	if err := svc.Process(context.Background(), relayed("ORD002", 37.7849, -122.4094, ts)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	loc, err := svc.LastLocation(context.Background(), "ORD002")
	if err != nil {
		t.Fatalf("LastLocation returned error: %v", err)
	}
	if loc.Location.Lat != 37.7849 || loc.Location.Lng != -122.4094 {
		t.Fatalf("unexpected location: %+v", loc.Location)
	}
	if len(loc.Geohash) != geohashPrecision || loc.Geohash[:5] != "9q8yy" {
		t.Fatalf("unexpected geohash: %s", loc.Geohash)
	}
	if len(audit.inserted) != 1 || audit.senders[0] != "DEL001" {
		t.Fatalf("expected one audit row from DEL001, got %d", len(audit.inserted))
	}
}

func TestLocationService_Process_Stale(t *testing.T) {
	store := newStubLastLocations()
	audit := &stubLocationAudit{}
	svc := NewLocationService(store, audit, zerolog.Nop())

	ts := time.Now().UTC()
	_ = svc.Process(context.Background(), relayed("ORD002", 37.78, -122.41, ts))
	err := svc.Process(context.Background(), relayed("ORD002", 37.70, -122.50, ts.Add(-time.Second)))

	if !errors.Is(err, domain.ErrStaleLocation) {
		t.Fatalf("expected ErrStaleLocation, got %v", err)
	}
	loc, _ := svc.LastLocation(context.Background(), "ORD002")
	if loc.Location.Lat != 37.78 {
		t.Fatalf("stale event overwrote last location: %+v", loc.Location)
	}
	if len(audit.inserted) != 1 {
		t.Fatalf("expected stale event not to be audited, got %d rows", len(audit.inserted))
	}
}

func TestLocationService_Process_Invalid(t *testing.T) {
	svc := NewLocationService(newStubLastLocations(), &stubLocationAudit{}, zerolog.Nop())

	cases := []ports.RelayedLocation{
		relayed("", 1, 1, time.Now()),
		relayed("ORD001", 91, 1, time.Now()),
		relayed("ORD001", 1, -181, time.Now()),
		relayed("ORD001", 1, 1, time.Time{}),
	}
	for i, in := range cases {
		if err := svc.Process(context.Background(), in); !errors.Is(err, domain.ErrInvalidLocation) {
			t.Errorf("case %d: expected ErrInvalidLocation, got %v", i, err)
		}
	}
}

func TestLocationService_Process_StoreError(t *testing.T) {
	store := newStubLastLocations()
	store.saveErr = errors.New("redis down")
	audit := &stubLocationAudit{}
	svc := NewLocationService(store, audit, zerolog.Nop())

	if err := svc.Process(context.Background(), relayed("ORD001", 1, 1, time.Now())); err == nil {
		t.Fatal("expected error when the store fails")
	}
	if len(audit.inserted) != 0 {
		t.Fatal("expected no audit row when the store fails")
	}
}

func TestLocationService_Process_AuditErrorIsNonFatal(t *testing.T) {
	audit := &stubLocationAudit{insertErr: errors.New("mongo down")}
	svc := NewLocationService(newStubLastLocations(), audit, zerolog.Nop())

	if err := svc.Process(context.Background(), relayed("ORD001", 1, 1, time.Now())); err != nil {
		t.Fatalf("expected audit failure to be non-fatal, got %v", err)
	}
}

func TestLocationService_LastLocation_NotFound(t *testing.T) {
	svc := NewLocationService(newStubLastLocations(), &stubLocationAudit{}, zerolog.Nop())

	if _, err := svc.LastLocation(context.Background(), "ORD009"); !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}
