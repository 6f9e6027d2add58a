package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// CreateOrderInput carries all data needed to create a new order.
type CreateOrderInput struct {
	VendorID         string
	VendorName       string
	CustomerID       string
	CustomerName     string
	CustomerPhone    string
	Items            []domain.OrderItem
	PickupAddress    string
	DeliveryAddress  string
	PickupLocation   domain.Coordinates
	DeliveryLocation domain.Coordinates
}

// Caller identifies who is invoking an order operation, for ownership checks.
type Caller struct {
	UserID string
	Role   domain.Role
}

// OrderService defines use-case operations for orders.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, caller Caller, id string) (*domain.Order, error)
	VendorOrders(ctx context.Context, caller Caller, vendorID string) ([]*domain.Order, error)
	PartnerOrders(ctx context.Context, caller Caller, partnerID string) ([]*domain.Order, error)
	AssignPartner(ctx context.Context, caller Caller, orderID, partnerID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, caller Caller, orderID string, status domain.OrderStatus) (*domain.Order, error)
	AvailablePartners(ctx context.Context) ([]*domain.DeliveryPartner, error)
}
