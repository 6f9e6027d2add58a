package domain

import (
	"errors"
	"time"
)

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// PositionSample is a single fix produced by a position source. Each sample
// supersedes the previous one; samples are never persisted by the client.
type PositionSample struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters *float64
	CapturedAt     time.Time
}

// Coordinates returns the lat/lng pair of the sample.
func (p PositionSample) Coordinates() Coordinates {
	return Coordinates{Lat: p.Latitude, Lng: p.Longitude}
}

// CapturedAtEpochMillis returns the capture time in Unix milliseconds.
func (p PositionSample) CapturedAtEpochMillis() int64 {
	return p.CapturedAt.UnixMilli()
}

// WatchOptions configures a position request.
type WatchOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// TrackingSession is a snapshot of "this device is sharing its location for
// delivery X". DeliveryID is empty when the session publishes nothing.
type TrackingSession struct {
	DeliveryID string
	Active     bool
	LastError  error
}

// LocationEvent is the wire payload of a location-update.
type LocationEvent struct {
	DeliveryID string      `json:"deliveryId"`
	Location   Coordinates `json:"location"`
	Timestamp  time.Time   `json:"timestamp"`
}

// StatusEvent is the wire payload of an order-status-update.
type StatusEvent struct {
	DeliveryID string      `json:"deliveryId"`
	Status     OrderStatus `json:"status"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Route is a routing provider answer between two points.
type Route struct {
	Geometry        []Coordinates
	DistanceKm      float64
	DurationMinutes int
}

// LastLocation is the latest recorded position for a delivery.
type LastLocation struct {
	DeliveryID string      `json:"delivery_id"`
	Location   Coordinates `json:"location"`
	Geohash    string      `json:"geohash"`
	Timestamp  time.Time   `json:"timestamp"`
}

var ErrInvalidLocation = errors.New("invalid location")
var ErrLocationNotFound = errors.New("location not found")

// ErrStaleLocation is returned when a location event is older than the one
// already recorded for the delivery.
var ErrStaleLocation = errors.New("stale location")

// Valid reports whether c is inside the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}
