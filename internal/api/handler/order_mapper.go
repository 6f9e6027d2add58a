package handler

import (
	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

// --- Request → Service input ---

func toCreateOrderInput(req createOrderRequest, vendorID string) ports.CreateOrderInput {
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return ports.CreateOrderInput{
		VendorID:         vendorID,
		VendorName:       req.VendorName,
		CustomerID:       req.CustomerID,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		Items:            items,
		PickupAddress:    req.PickupAddress,
		DeliveryAddress:  req.DeliveryAddress,
		PickupLocation:   toCoordinates(req.PickupLocation),
		DeliveryLocation: toCoordinates(req.DeliveryLocation),
	}
}

func toCoordinates(c coordinatesRequest) domain.Coordinates {
	return domain.Coordinates{Lat: c.Lat, Lng: c.Lng}
}

// --- Service output → Response ---

// Lists are rendered as [] rather than null when empty.
func toOrderList(orders []*domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, *o)
	}
	return out
}

func toPartnerList(partners []*domain.DeliveryPartner) []domain.DeliveryPartner {
	out := make([]domain.DeliveryPartner, 0, len(partners))
	for _, p := range partners {
		out = append(out, *p)
	}
	return out
}
