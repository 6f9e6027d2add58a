// Package realtime implements the per-delivery room transport: the Hub
// relays events between peers over WebSocket and the Client is the peer side
// used by the tracker.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Event names on the wire.
const (
	EventLocationUpdate = "location-update"
	EventStatusUpdate   = "order-status-update"
	EventJoinTracking   = "join-tracking"
	EventLeaveTracking  = "leave-tracking"
	EventError          = "error"
)

// Message is the envelope of every frame.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RoomRequest is the payload of join-tracking and leave-tracking.
type RoomRequest struct {
	DeliveryID string `json:"deliveryId"`
}

// ErrorMessage is sent by the hub when it rejects a frame.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event, err)
	}
	return json.Marshal(Message{Event: event, Data: raw})
}

func decode(frame []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Message{}, err
	}
	if msg.Event == "" {
		return Message{}, fmt.Errorf("missing event name")
	}
	return msg, nil
}
