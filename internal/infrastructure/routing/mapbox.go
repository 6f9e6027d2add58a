// Package routing answers route queries between two points.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/99minutos/live-tracking/internal/api/metrics"
	"github.com/99minutos/live-tracking/internal/core/domain"
)

const (
	DefaultMapboxURL = "https://api.mapbox.com"
	defaultTimeout   = 10 * time.Second
)

// Mapbox queries the Mapbox Directions API with the driving profile.
type Mapbox struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewMapbox(baseURL, token string, client *http.Client) *Mapbox {
	if baseURL == "" {
		baseURL = DefaultMapboxURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Mapbox{baseURL: strings.TrimRight(baseURL, "/"), token: token, client: client}
}

type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// Route returns the first driving route. Distance is in km rounded to two
// decimals and duration in whole minutes.
func (m *Mapbox) Route(ctx context.Context, from, to domain.Coordinates) (*domain.Route, error) {
	route, err := m.query(ctx, from, to)
	if err != nil {
		metrics.RouteQueriesTotal.WithLabelValues("mapbox", "unavailable").Inc()
		return nil, &domain.RouteUnavailableError{Err: err}
	}
	metrics.RouteQueriesTotal.WithLabelValues("mapbox", "ok").Inc()
	return route, nil
}

func (m *Mapbox) query(ctx context.Context, from, to domain.Coordinates) (*domain.Route, error) {
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/driving/%s,%s;%s,%s",
		m.baseURL, coord(from.Lng), coord(from.Lat), coord(to.Lng), coord(to.Lat))
	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("access_token", m.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		// url.Error prints the full URL, access token included.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = endpoint
		}
		return nil, err
	}
	defer resp.Body.Close()

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode directions: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions: status %d: %s", resp.StatusCode, body.Message)
	}
	if len(body.Routes) == 0 {
		return nil, errors.New("directions: no route (" + body.Code + ")")
	}

	r := body.Routes[0]
	geometry := make([]domain.Coordinates, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		geometry = append(geometry, domain.Coordinates{Lat: c[1], Lng: c[0]})
	}

	return &domain.Route{
		Geometry:        geometry,
		DistanceKm:      math.Round(r.Distance/1000*100) / 100,
		DurationMinutes: int(math.Round(r.Duration / 60)),
	}, nil
}

func coord(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
