package ports

import (
	"context"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// OrderGateway is the client-side data access used by the tracker CLI. One
// implementation talks to the REST backend, the other serves sample data.
type OrderGateway interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	VendorOrders(ctx context.Context, vendorID string) ([]domain.Order, error)
	PartnerOrders(ctx context.Context, partnerID string) ([]domain.Order, error)
	AssignPartner(ctx context.Context, orderID, partnerID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error)
	AvailablePartners(ctx context.Context) ([]domain.DeliveryPartner, error)
}
