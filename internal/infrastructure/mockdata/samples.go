package mockdata

import (
	"time"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

const (
	pizzaPalace = "VEN001"
	thaiGarden  = "VEN002"
)

func sampleOrders(base time.Time) []*domain.Order {
	orders := []*domain.Order{
		{
			ID:               "ORD001",
			VendorID:         pizzaPalace,
			VendorName:       "Pizza Palace",
			CustomerID:       "CUST001",
			CustomerName:     "John Doe",
			CustomerPhone:    "+1-555-0123",
			Items:            items("Pizza Margherita", 15.99, "Garlic Bread", 6.50, "Coke", 3.50),
			Status:           domain.StatusPending,
			PickupAddress:    "Pizza Palace, 789 Food Court",
			DeliveryAddress:  "123 Main St, Downtown",
			PickupLocation:   domain.Coordinates{Lat: 37.7749, Lng: -122.4194},
			DeliveryLocation: domain.Coordinates{Lat: 37.7793, Lng: -122.4192},
			CreatedAt:        base,
		},
		{
			ID:                  "ORD002",
			VendorID:            pizzaPalace,
			VendorName:          "Pizza Palace",
			CustomerID:          "CUST001",
			CustomerName:        "Jane Smith",
			CustomerPhone:       "+1-555-0124",
			DeliveryPartnerID:   "DEL001",
			DeliveryPartnerName: "Alex Rodriguez",
			Items:               items("Burger Combo", 11.00, "Fries", 3.50, "Milkshake", 4.00),
			Status:              domain.StatusAssigned,
			PickupAddress:       "Pizza Palace, 789 Food Court",
			DeliveryAddress:     "456 Oak Ave, Midtown",
			PickupLocation:      domain.Coordinates{Lat: 37.7749, Lng: -122.4194},
			DeliveryLocation:    domain.Coordinates{Lat: 37.7849, Lng: -122.4094},
			EstimatedDelivery:   "25 mins",
			CreatedAt:           base.Add(10 * time.Minute),
		},
		{
			ID:                  "ORD003",
			VendorID:            pizzaPalace,
			VendorName:          "Pizza Palace",
			CustomerID:          "CUST002",
			CustomerName:        "Mike Johnson",
			CustomerPhone:       "+1-555-0125",
			DeliveryPartnerID:   "DEL002",
			DeliveryPartnerName: "Sarah Chen",
			Items:               items("Sushi Platter", 26.00, "Miso Soup", 6.00),
			Status:              domain.StatusInTransit,
			PickupAddress:       "Pizza Palace, 789 Food Court",
			DeliveryAddress:     "789 Pine Rd, Uptown",
			PickupLocation:      domain.Coordinates{Lat: 37.7749, Lng: -122.4194},
			DeliveryLocation:    domain.Coordinates{Lat: 37.7909, Lng: -122.4108},
			EstimatedDelivery:   "15 mins",
			CreatedAt:           base.Add(20 * time.Minute),
		},
		{
			ID:               "ORD004",
			VendorID:         thaiGarden,
			VendorName:       "Thai Garden",
			CustomerID:       "CUST003",
			CustomerName:     "Emma Brown",
			CustomerPhone:    "+1-555-0127",
			Items:            items("Pad Thai", 14.25, "Mango Sticky Rice", 7.00),
			Status:           domain.StatusPending,
			PickupAddress:    "Thai Garden, 321 Asia Street",
			DeliveryAddress:  "55 Market St, Financial District",
			PickupLocation:   domain.Coordinates{Lat: 37.7699, Lng: -122.4294},
			DeliveryLocation: domain.Coordinates{Lat: 37.7940, Lng: -122.3950},
			CreatedAt:        base.Add(30 * time.Minute),
		},
		{
			ID:                  "ORD005",
			VendorID:            thaiGarden,
			VendorName:          "Thai Garden",
			CustomerID:          "CUST004",
			CustomerName:        "David Wilson",
			CustomerPhone:       "+1-555-0126",
			DeliveryPartnerID:   "DEL001",
			DeliveryPartnerName: "Alex Rodriguez",
			Items:               items("Thai Green Curry", 13.25, "Jasmine Rice", 3.50, "Spring Rolls", 8.00),
			Status:              domain.StatusPickedUp,
			PickupAddress:       "Thai Garden, 321 Asia Street",
			DeliveryAddress:     "987 Elm Street, Downtown",
			PickupLocation:      domain.Coordinates{Lat: 37.7699, Lng: -122.4294},
			DeliveryLocation:    domain.Coordinates{Lat: 37.7810, Lng: -122.4110},
			EstimatedDelivery:   "20 mins",
			CreatedAt:           base.Add(40 * time.Minute),
		},
	}

	for _, o := range orders {
		o.UpdatedAt = o.CreatedAt
		for _, it := range o.Items {
			o.TotalAmount += it.Price * float64(it.Quantity)
		}
		o.StatusHistory = history(o.Status, o.CreatedAt)
	}
	return orders
}

func samplePartners() []*domain.DeliveryPartner {
	return []*domain.DeliveryPartner{
		{ID: "DEL001", Name: "Alex Rodriguez", Phone: "+1-555-1001", IsAvailable: false},
		{ID: "DEL002", Name: "Sarah Chen", Phone: "+1-555-1002", IsAvailable: false},
		{ID: "DEL003", Name: "Mike Thompson", Phone: "+1-555-1003", IsAvailable: true},
		{ID: "DEL004", Name: "Lisa Garcia", Phone: "+1-555-1004", IsAvailable: true},
	}
}

// items takes name/price pairs, one unit each.
func items(pairs ...any) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.OrderItem{
			Name:     pairs[i].(string),
			Price:    pairs[i+1].(float64),
			Quantity: 1,
		})
	}
	return out
}

// history replays the happy path up to status, one minute per step.
func history(status domain.OrderStatus, from time.Time) []domain.StatusHistoryEntry {
	path := []domain.OrderStatus{
		domain.StatusPending,
		domain.StatusAssigned,
		domain.StatusPickedUp,
		domain.StatusInTransit,
		domain.StatusDelivered,
	}
	var out []domain.StatusHistoryEntry
	for i, s := range path {
		out = append(out, domain.StatusHistoryEntry{Status: s, Timestamp: from.Add(time.Duration(i) * time.Minute)})
		if s == status {
			break
		}
	}
	return out
}
