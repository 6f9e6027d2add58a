package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", "tok", srv.Client(), zerolog.Nop())
}

func TestClient_GetOrder(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/orders/ORD002", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(domain.Order{ID: "ORD002", Status: domain.StatusAssigned})
	})

	o, err := c.GetOrder(context.Background(), "ORD002")
	require.NoError(t, err)
	assert.Equal(t, "ORD002", o.ID)
	assert.Equal(t, domain.StatusAssigned, o.Status)
}

func TestClient_AssignAndStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders/ORD001/assign":
			assert.Equal(t, http.MethodPost, r.Method)
			var body assignRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "DEL003", body.DeliveryPartnerID)
			_ = json.NewEncoder(w).Encode(domain.Order{ID: "ORD001", Status: domain.StatusAssigned, DeliveryPartnerID: "DEL003"})
		case "/api/orders/ORD001/status":
			assert.Equal(t, http.MethodPut, r.Method)
			var body statusRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_ = json.NewEncoder(w).Encode(domain.Order{ID: "ORD001", Status: body.Status})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	o, err := c.AssignPartner(ctx, "ORD001", "DEL003")
	require.NoError(t, err)
	assert.Equal(t, "DEL003", o.DeliveryPartnerID)

	o, err = c.UpdateStatus(ctx, "ORD001", domain.StatusPickedUp)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPickedUp, o.Status)
}

func TestClient_Lists(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders/vendor/VEN001":
			_ = json.NewEncoder(w).Encode([]domain.Order{{ID: "ORD001"}, {ID: "ORD002"}})
		case "/api/orders/delivery/DEL001":
			_ = json.NewEncoder(w).Encode([]domain.Order{{ID: "ORD002"}})
		case "/api/delivery-partners/available":
			_ = json.NewEncoder(w).Encode([]domain.DeliveryPartner{{ID: "DEL003", IsAvailable: true}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	vendor, err := c.VendorOrders(ctx, "VEN001")
	require.NoError(t, err)
	assert.Len(t, vendor, 2)

	courier, err := c.PartnerOrders(ctx, "DEL001")
	require.NoError(t, err)
	assert.Len(t, courier, 1)

	partners, err := c.AvailablePartners(ctx)
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.True(t, partners[0].IsAvailable)
}

func TestClient_LoginKeepsToken(t *testing.T) {
	var lastAuth string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		if r.URL.Path == "/api/auth/login" {
			_ = json.NewEncoder(w).Encode(authResponse{Token: "fresh", User: &domain.User{ID: "u1", Role: domain.RoleDelivery}})
			return
		}
		_ = json.NewEncoder(w).Encode([]domain.DeliveryPartner{})
	})

	u, err := c.Login(context.Background(), "alex@example.com", "secret", domain.RoleDelivery)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "fresh", c.Token())

	_, err = c.AvailablePartners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer fresh", lastAuth)
}

func TestClient_NonSuccessIsTransportError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"order not found"}`))
	})

	_, err := c.GetOrder(context.Background(), "ORD999")
	var terr *domain.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.StatusNotFound, terr.Status)
	assert.EqualError(t, terr.Err, "order not found")
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(srv.URL, "", nil, zerolog.Nop())

	_, err := c.AvailablePartners(context.Background())
	var terr *domain.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.Status)
}
