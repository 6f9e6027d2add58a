package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned when the host has no positioning capability.
var ErrUnsupported = errors.New("geolocation is not supported")

// PositioningReason classifies a positioning failure.
type PositioningReason string

const (
	ReasonPermissionDenied    PositioningReason = "permission_denied"
	ReasonTimeout             PositioningReason = "timeout"
	ReasonPositionUnavailable PositioningReason = "position_unavailable"
)

// PositioningError is returned when a position could not be obtained.
type PositioningError struct {
	Reason  PositioningReason
	Message string
}

func (e *PositioningError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("location error: %s", e.Reason)
	}
	return fmt.Sprintf("location error: %s: %s", e.Reason, e.Message)
}

// RouteUnavailableError is returned when the routing provider gives no route.
type RouteUnavailableError struct {
	Err error
}

func (e *RouteUnavailableError) Error() string {
	if e.Err == nil {
		return "route unavailable"
	}
	return "route unavailable: " + e.Err.Error()
}

func (e *RouteUnavailableError) Unwrap() error { return e.Err }

// TransportError wraps network or auth failures from the REST backend or the
// realtime channel. Status is the HTTP status code when there is one.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": transport error"
}

func (e *TransportError) Unwrap() error { return e.Err }
