// Package mockdata serves the sample orders and delivery partners used when
// the tracker runs without a backend.
package mockdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohae/deepcopy"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// Store is an in-memory order gateway seeded with sample data.
type Store struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	partners map[string]*domain.DeliveryPartner
	now      func() time.Time
}

// NewStore returns a store seeded with orders ORD001..ORD005 and partners
// DEL001..DEL004 around San Francisco.
func NewStore() *Store {
	s := &Store{
		orders:   make(map[string]*domain.Order),
		partners: make(map[string]*domain.DeliveryPartner),
		now:      time.Now,
	}
	base := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, o := range sampleOrders(base) {
		s.orders[o.ID] = o
	}
	for _, p := range samplePartners() {
		s.partners[p.ID] = p
	}
	return s
}

func (s *Store) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (s *Store) VendorOrders(_ context.Context, vendorID string) ([]domain.Order, error) {
	return s.list(func(o *domain.Order) bool { return o.VendorID == vendorID }), nil
}

func (s *Store) PartnerOrders(_ context.Context, partnerID string) ([]domain.Order, error) {
	return s.list(func(o *domain.Order) bool { return o.DeliveryPartnerID == partnerID }), nil
}

func (s *Store) AssignPartner(_ context.Context, orderID, partnerID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(domain.StatusAssigned) {
		return nil, domain.ErrInvalidTransition
	}
	p, ok := s.partners[partnerID]
	if !ok {
		return nil, domain.ErrPartnerNotFound
	}
	if !p.IsAvailable {
		return nil, domain.ErrPartnerUnavailable
	}

	o.DeliveryPartnerID = p.ID
	o.DeliveryPartnerName = p.Name
	s.transitionLocked(o, domain.StatusAssigned, "assigned to "+p.Name)
	p.IsAvailable = false
	return copyOrder(o), nil
}

func (s *Store) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(status) {
		return nil, domain.ErrInvalidTransition
	}
	s.transitionLocked(o, status, "")
	if status.IsTerminal() {
		if p, ok := s.partners[o.DeliveryPartnerID]; ok {
			p.IsAvailable = true
		}
	}
	return copyOrder(o), nil
}

func (s *Store) AvailablePartners(_ context.Context) ([]domain.DeliveryPartner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.DeliveryPartner, 0, len(s.partners))
	for _, p := range s.partners {
		if p.IsAvailable {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) list(match func(*domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if match(o) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) transitionLocked(o *domain.Order, status domain.OrderStatus, notes string) {
	ts := s.now().UTC()
	o.Status = status
	o.UpdatedAt = ts
	o.StatusHistory = append(o.StatusHistory, domain.StatusHistoryEntry{
		Status:    status,
		Timestamp: ts,
		Notes:     notes,
	})
}

func copyOrder(o *domain.Order) *domain.Order {
	return deepcopy.Copy(o).(*domain.Order)
}
