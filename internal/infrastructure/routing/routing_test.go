package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

var (
	pickup  = domain.Coordinates{Lat: 37.7749, Lng: -122.4194}
	dropoff = domain.Coordinates{Lat: 37.7849, Lng: -122.4094}
)

func TestMapbox_Route(t *testing.T) {
	var gotPath, gotToken, gotGeometries string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		gotGeometries = r.URL.Query().Get("geometries")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[{"distance":1834.6,"duration":389.0,
			"geometry":{"type":"LineString","coordinates":[[-122.4194,37.7749],[-122.41,37.78],[-122.4094,37.7849]]}}]}`))
	}))
	defer srv.Close()

	m := NewMapbox(srv.URL, "pk.test", srv.Client())
	route, err := m.Route(context.Background(), pickup, dropoff)
	require.NoError(t, err)

	assert.Equal(t, "/directions/v5/mapbox/driving/-122.419400,37.774900;-122.409400,37.784900", gotPath)
	assert.Equal(t, "pk.test", gotToken)
	assert.Equal(t, "geojson", gotGeometries)

	assert.Equal(t, 1.83, route.DistanceKm)
	assert.Equal(t, 6, route.DurationMinutes)
	require.Len(t, route.Geometry, 3)
	assert.Equal(t, pickup, route.Geometry[0])
	assert.Equal(t, dropoff, route.Geometry[2])
}

func TestMapbox_Unavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"no route": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
		},
		"unauthorized": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
		},
		"garbage": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewMapbox(srv.URL, "pk.test", srv.Client()).Route(context.Background(), pickup, dropoff)
			var rue *domain.RouteUnavailableError
			assert.True(t, errors.As(err, &rue), "expected RouteUnavailableError, got %v", err)
		})
	}
}

func TestMapbox_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewMapbox(url, "pk.test", nil).Route(context.Background(), pickup, dropoff)
	var rue *domain.RouteUnavailableError
	assert.True(t, errors.As(err, &rue))
}

func TestMapbox_NetworkErrorHidesToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	m := NewMapbox(srv.URL, "sk.SECRET-TOKEN", nil)
	_, err := m.Route(context.Background(), pickup, dropoff)
	require.Error(t, err)

	assert.NotContains(t, err.Error(), "sk.SECRET-TOKEN")
	assert.NotContains(t, err.Error(), "access_token")
	assert.Contains(t, err.Error(), "/directions/v5/mapbox/driving/")
}

func TestEstimate_Route(t *testing.T) {
	route, err := NewEstimate(30).Route(context.Background(), pickup, dropoff)
	require.NoError(t, err)

	// ~1.41 km at 30 km/h
	assert.InDelta(t, 1.41, route.DistanceKm, 0.02)
	assert.Equal(t, 3, route.DurationMinutes)
	assert.Equal(t, []domain.Coordinates{pickup, dropoff}, route.Geometry)
}

func TestEstimate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEstimate(0).Route(ctx, pickup, dropoff)
	var rue *domain.RouteUnavailableError
	assert.True(t, errors.As(err, &rue))
}
