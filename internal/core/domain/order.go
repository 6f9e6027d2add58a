package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle state of a delivery order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAssigned  OrderStatus = "assigned"
	StatusPickedUp  OrderStatus = "picked_up"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
// Any non-terminal status may also move to StatusCancelled.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusAssigned},
	StatusAssigned:  {StatusPickedUp},
	StatusPickedUp:  {StatusInTransit},
	StatusInTransit: {StatusDelivered},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrOrderNotFound = errors.New("order not found")
var ErrPartnerNotFound = errors.New("delivery partner not found")
var ErrPartnerUnavailable = errors.New("delivery partner unavailable")
var ErrForbidden = errors.New("access forbidden")

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a single line of an order.
type OrderItem struct {
	Name     string  `json:"name" bson:"name"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"`
}

// StatusHistoryEntry records a single status transition on an order.
type StatusHistoryEntry struct {
	Status    OrderStatus `json:"status" bson:"status"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
	Notes     string      `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Order is the core aggregate root.
type Order struct {
	ID                  string               `json:"id" bson:"_id"`
	VendorID            string               `json:"vendor_id" bson:"vendor_id"`
	VendorName          string               `json:"vendor_name" bson:"vendor_name"`
	CustomerID          string               `json:"customer_id" bson:"customer_id"`
	CustomerName        string               `json:"customer_name" bson:"customer_name"`
	CustomerPhone       string               `json:"customer_phone" bson:"customer_phone"`
	DeliveryPartnerID   string               `json:"delivery_partner_id,omitempty" bson:"delivery_partner_id,omitempty"`
	DeliveryPartnerName string               `json:"delivery_partner_name,omitempty" bson:"delivery_partner_name,omitempty"`
	Items               []OrderItem          `json:"items" bson:"items"`
	TotalAmount         float64              `json:"total_amount" bson:"total_amount"`
	Status              OrderStatus          `json:"status" bson:"status"`
	PickupAddress       string               `json:"pickup_address" bson:"pickup_address"`
	DeliveryAddress     string               `json:"delivery_address" bson:"delivery_address"`
	PickupLocation      Coordinates          `json:"pickup_location" bson:"pickup_location"`
	DeliveryLocation    Coordinates          `json:"delivery_location" bson:"delivery_location"`
	EstimatedDelivery   string               `json:"estimated_delivery_time,omitempty" bson:"estimated_delivery_time,omitempty"`
	CreatedAt           time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at" bson:"updated_at"`
	StatusHistory       []StatusHistoryEntry `json:"status_history,omitempty" bson:"status_history"`
}

// DeliveryPartner is a courier that can be assigned to orders.
type DeliveryPartner struct {
	ID          string `json:"id" bson:"_id"`
	Name        string `json:"name" bson:"name"`
	Phone       string `json:"phone" bson:"phone"`
	IsAvailable bool   `json:"is_available" bson:"is_available"`
}
