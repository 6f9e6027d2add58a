package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

type stubLocationService struct {
	last map[string]*domain.LastLocation
}

func (s *stubLocationService) Process(ctx context.Context, in ports.RelayedLocation) error {
	return nil
}

func (s *stubLocationService) LastLocation(ctx context.Context, deliveryID string) (*domain.LastLocation, error) {
	if l, ok := s.last[deliveryID]; ok {
		return l, nil
	}
	return nil, domain.ErrLocationNotFound
}

func TestLocationHandler_Last(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	stub := &stubLocationService{last: map[string]*domain.LastLocation{
		"ORD002": {DeliveryID: "ORD002", Location: domain.Coordinates{Lat: 37.7749, Lng: -122.4194}, Geohash: "9q8yyk8", Timestamp: ts},
	}}
	h := NewLocationHandler(stub)

	c, rec := newTestContext(http.MethodGet, "/api/deliveries/ORD002/location", "")
	c.SetParamNames("id")
	c.SetParamValues("ORD002")

	if err := h.Last(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp domain.LastLocation
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Location.Lat != 37.7749 || !resp.Timestamp.Equal(ts) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLocationHandler_NotFound(t *testing.T) {
	h := NewLocationHandler(&stubLocationService{})

	c, _ := newTestContext(http.MethodGet, "/api/deliveries/ORD404/location", "")
	c.SetParamNames("id")
	c.SetParamValues("ORD404")

	if err := h.Last(c); !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}
