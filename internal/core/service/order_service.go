package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

type OrderService struct {
	orders      ports.OrderRepository
	partners    ports.PartnerRepository
	broadcaster ports.StatusBroadcaster
	logger      zerolog.Logger
	now         func() time.Time
}

func NewOrderService(orders ports.OrderRepository, partners ports.PartnerRepository, broadcaster ports.StatusBroadcaster, logger zerolog.Logger) *OrderService {
	return &OrderService{
		orders:      orders,
		partners:    partners,
		broadcaster: broadcaster,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder creates a pending order for the vendor.
func (s *OrderService) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	now := s.now()
	var total float64
	items := make([]domain.OrderItem, len(input.Items))
	for i, it := range input.Items {
		items[i] = it
		total += it.Price * float64(it.Quantity)
	}

	order := &domain.Order{
		ID:               generateOrderID(),
		VendorID:         input.VendorID,
		VendorName:       input.VendorName,
		CustomerID:       input.CustomerID,
		CustomerName:     input.CustomerName,
		CustomerPhone:    input.CustomerPhone,
		Items:            items,
		TotalAmount:      total,
		Status:           domain.StatusPending,
		PickupAddress:    input.PickupAddress,
		DeliveryAddress:  input.DeliveryAddress,
		PickupLocation:   input.PickupLocation,
		DeliveryLocation: input.DeliveryLocation,
		CreatedAt:        now,
		UpdatedAt:        now,
		StatusHistory:    []domain.StatusHistoryEntry{{Status: domain.StatusPending, Timestamp: now}},
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Msg("failed to create order")
		return nil, err
	}

	s.logger.Info().Str("order_id", order.ID).Str("vendor_id", order.VendorID).Msg("order created")
	return order, nil
}

// GetOrder returns the order when the caller takes part in it.
func (s *OrderService) GetOrder(ctx context.Context, caller ports.Caller, id string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, order) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *OrderService) VendorOrders(ctx context.Context, caller ports.Caller, vendorID string) ([]*domain.Order, error) {
	if caller.Role != domain.RoleVendor || caller.UserID != vendorID {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListByVendor(ctx, vendorID)
}

func (s *OrderService) PartnerOrders(ctx context.Context, caller ports.Caller, partnerID string) ([]*domain.Order, error) {
	if caller.Role != domain.RoleDelivery || caller.UserID != partnerID {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListByPartner(ctx, partnerID)
}

// AssignPartner hands a pending order to an available delivery partner.
func (s *OrderService) AssignPartner(ctx context.Context, caller ports.Caller, orderID, partnerID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleVendor || caller.UserID != order.VendorID {
		return nil, domain.ErrForbidden
	}
	if !order.Status.CanTransitionTo(domain.StatusAssigned) {
		return nil, fmt.Errorf("assign partner: %w (from %s to %s)", domain.ErrInvalidTransition, order.Status, domain.StatusAssigned)
	}

	partner, err := s.partners.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !partner.IsAvailable {
		return nil, domain.ErrPartnerUnavailable
	}

	now := s.now()
	if err := s.orders.Assign(ctx, orderID, *partner, order.Status, now); err != nil {
		return nil, fmt.Errorf("assign partner: %w", err)
	}
	if err := s.partners.SetAvailable(ctx, partnerID, false); err != nil {
		s.logger.Warn().Err(err).Str("partner_id", partnerID).Msg("failed to mark partner busy")
	}

	s.logger.Info().Str("order_id", orderID).Str("partner_id", partnerID).Msg("partner assigned")
	s.broadcast(orderID, domain.StatusAssigned, now)

	return s.orders.FindByID(ctx, orderID)
}

// UpdateStatus moves the order along the state machine and pushes the change
// to everyone tracking it.
func (s *OrderService) UpdateStatus(ctx context.Context, caller ports.Caller, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("update status: %w (unknown status %q)", domain.ErrInvalidTransition, status)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canUpdate(caller, order) {
		return nil, domain.ErrForbidden
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("update status: %w (from %s to %s)", domain.ErrInvalidTransition, order.Status, status)
	}

	now := s.now()
	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, status, now, "updated by "+string(caller.Role)); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if status.IsTerminal() && order.DeliveryPartnerID != "" {
		if err := s.partners.SetAvailable(ctx, order.DeliveryPartnerID, true); err != nil {
			s.logger.Warn().Err(err).Str("partner_id", order.DeliveryPartnerID).Msg("failed to release partner")
		}
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("from", string(order.Status)).
		Str("status", string(status)).
		Msg("order status updated")
	s.broadcast(orderID, status, now)

	return s.orders.FindByID(ctx, orderID)
}

func (s *OrderService) AvailablePartners(ctx context.Context) ([]*domain.DeliveryPartner, error) {
	return s.partners.ListAvailable(ctx)
}

func (s *OrderService) broadcast(orderID string, status domain.OrderStatus, ts time.Time) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastStatus(domain.StatusEvent{DeliveryID: orderID, Status: status, Timestamp: ts})
}

func canView(c ports.Caller, o *domain.Order) bool {
	switch c.Role {
	case domain.RoleVendor:
		return c.UserID == o.VendorID
	case domain.RoleCustomer:
		return c.UserID == o.CustomerID
	case domain.RoleDelivery:
		return c.UserID == o.DeliveryPartnerID
	}
	return false
}

// canUpdate reports whether c is the assigned partner or the owning vendor.
func canUpdate(c ports.Caller, o *domain.Order) bool {
	switch c.Role {
	case domain.RoleDelivery:
		return c.UserID == o.DeliveryPartnerID
	case domain.RoleVendor:
		return c.UserID == o.VendorID
	}
	return false
}

// generateOrderID returns a unique order id in the format ORD-XXXXXXXX.
func generateOrderID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("ORD-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("ORD-%08X", b)
}
