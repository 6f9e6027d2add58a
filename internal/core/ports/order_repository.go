package ports

import (
	"context"
	"time"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*domain.Order, error)
	ListByPartner(ctx context.Context, partnerID string) ([]*domain.Order, error)
	// Assign sets the partner and moves the order to assigned, only when the
	// order is still in the expected status.
	Assign(ctx context.Context, id string, partner domain.DeliveryPartner, expected domain.OrderStatus, ts time.Time) error
	// UpdateStatus atomically sets the new status and appends a history entry,
	// only when the order is still in the expected status.
	UpdateStatus(ctx context.Context, id string, expected, next domain.OrderStatus, ts time.Time, notes string) error
}

// PartnerRepository stores delivery partners.
type PartnerRepository interface {
	FindByID(ctx context.Context, id string) (*domain.DeliveryPartner, error)
	ListAvailable(ctx context.Context) ([]*domain.DeliveryPartner, error)
	SetAvailable(ctx context.Context, id string, available bool) error
}
