package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

type chanSink chan ports.RelayedLocation

func (s chanSink) Enqueue(in ports.RelayedLocation) bool {
	select {
	case s <- in:
		return true
	default:
		return false
	}
}

// fullSink refuses every event, like a dispatcher whose workers fell behind.
type fullSink struct{}

func (fullSink) Enqueue(ports.RelayedLocation) bool { return false }

// newTestHub serves the hub with the identity taken from the query string.
func newTestHub(t *testing.T) (*Hub, chanSink, string) {
	t.Helper()
	sink := make(chanSink, 16)
	hub := NewHub(HubConfig{}, sink, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := domain.Identity{UserID: r.URL.Query().Get("user_id"), Role: domain.Role(r.URL.Query().Get("role"))}
		_ = hub.Serve(w, r, id)
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, sink, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHub_RelaysLocationToRoomButNotSender(t *testing.T) {
	hub, sink, url := newTestHub(t)

	courier := newTestClient(t, url)
	customer := newTestClient(t, url)
	vendor := newTestClient(t, url)

	echoed := make(chan domain.LocationEvent, 4)
	courier.OnLocationReceived(func(ev domain.LocationEvent) { echoed <- ev })
	toCustomer := make(chan domain.LocationEvent, 4)
	customer.OnLocationReceived(func(ev domain.LocationEvent) { toCustomer <- ev })
	toVendor := make(chan domain.LocationEvent, 4)
	vendor.OnLocationReceived(func(ev domain.LocationEvent) { toVendor <- ev })

	connect(t, courier, "DEL001", domain.RoleDelivery)
	connect(t, customer, "CUST001", domain.RoleCustomer)
	connect(t, vendor, "VEN001", domain.RoleVendor)
	courier.JoinRoom("ORD002")
	customer.JoinRoom("ORD002")
	vendor.JoinRoom("ORD001")
	require.Eventually(t, func() bool { return hub.RoomSize("ORD002") == 2 && hub.RoomSize("ORD001") == 1 }, waitFor, tick)

	require.NoError(t, courier.PublishLocation("ORD002", domain.Coordinates{Lat: 37.7849, Lng: -122.4094}))

	select {
	case ev := <-toCustomer:
		assert.Equal(t, "ORD002", ev.DeliveryID)
		assert.Equal(t, 37.7849, ev.Location.Lat)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(waitFor):
		t.Fatal("customer did not receive the location")
	}

	select {
	case in := <-sink:
		assert.Equal(t, "DEL001", in.SenderID)
		assert.Equal(t, "ORD002", in.Event.DeliveryID)
	case <-time.After(waitFor):
		t.Fatal("location was not handed to the sink")
	}

	assert.Never(t, func() bool { return len(echoed) > 0 || len(toVendor) > 0 }, 100*time.Millisecond, tick)
}

func TestHub_FullRecordingQueueDoesNotStallRelay(t *testing.T) {
	hub := NewHub(HubConfig{}, fullSink{}, zerolog.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := domain.Identity{UserID: r.URL.Query().Get("user_id"), Role: domain.Role(r.URL.Query().Get("role"))}
		_ = hub.Serve(w, r, id)
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	courier := newTestClient(t, url)
	customer := newTestClient(t, url)
	received := make(chan domain.LocationEvent, 8)
	customer.OnLocationReceived(func(ev domain.LocationEvent) { received <- ev })

	connect(t, courier, "DEL001", domain.RoleDelivery)
	connect(t, customer, "CUST001", domain.RoleCustomer)
	courier.JoinRoom("ORD002")
	customer.JoinRoom("ORD002")
	require.Eventually(t, func() bool { return hub.RoomSize("ORD002") == 2 }, waitFor, tick)

	for i := 0; i < 3; i++ {
		require.NoError(t, courier.PublishLocation("ORD002", domain.Coordinates{Lat: 37.7749 + float64(i)*0.001, Lng: -122.4194}))
	}
	require.Eventually(t, func() bool { return len(received) == 3 }, waitFor, tick)
}

func TestHub_StatusRelayAndBroadcast(t *testing.T) {
	hub, _, url := newTestHub(t)

	courier := newTestClient(t, url)
	customer := newTestClient(t, url)
	toCourier := make(chan domain.StatusEvent, 4)
	courier.OnStatusReceived(func(ev domain.StatusEvent) { toCourier <- ev })
	toCustomer := make(chan domain.StatusEvent, 4)
	customer.OnStatusReceived(func(ev domain.StatusEvent) { toCustomer <- ev })

	connect(t, courier, "DEL001", domain.RoleDelivery)
	connect(t, customer, "CUST001", domain.RoleCustomer)
	courier.JoinRoom("ORD002")
	customer.JoinRoom("ORD002")
	require.Eventually(t, func() bool { return hub.RoomSize("ORD002") == 2 }, waitFor, tick)

	require.NoError(t, courier.PublishStatus("ORD002", domain.StatusPickedUp))
	select {
	case ev := <-toCustomer:
		assert.Equal(t, domain.StatusPickedUp, ev.Status)
	case <-time.After(waitFor):
		t.Fatal("customer did not receive the status")
	}

	hub.BroadcastStatus(domain.StatusEvent{DeliveryID: "ORD002", Status: domain.StatusDelivered, Timestamp: time.Now()})
	for _, ch := range []chan domain.StatusEvent{toCourier, toCustomer} {
		select {
		case ev := <-ch:
			assert.Equal(t, domain.StatusDelivered, ev.Status)
		case <-time.After(waitFor):
			t.Fatal("broadcast not received")
		}
	}
}

func TestHub_LeaveStopsDelivery(t *testing.T) {
	hub, _, url := newTestHub(t)

	customer := newTestClient(t, url)
	got := make(chan domain.StatusEvent, 4)
	customer.OnStatusReceived(func(ev domain.StatusEvent) { got <- ev })

	connect(t, customer, "CUST001", domain.RoleCustomer)
	customer.JoinRoom("ORD003")
	require.Eventually(t, func() bool { return hub.RoomSize("ORD003") == 1 }, waitFor, tick)
	customer.LeaveRoom("ORD003")
	require.Eventually(t, func() bool { return hub.RoomSize("ORD003") == 0 }, waitFor, tick)

	hub.BroadcastStatus(domain.StatusEvent{DeliveryID: "ORD003", Status: domain.StatusCancelled, Timestamp: time.Now()})
	assert.Never(t, func() bool { return len(got) > 0 }, 100*time.Millisecond, tick)
}

func TestHub_RejectsInvalidLocation(t *testing.T) {
	_, sink, url := newTestHub(t)

	courier := newTestClient(t, url)
	errs := make(chan error, 1)
	courier.OnError(func(err error) { errs <- err })
	connect(t, courier, "DEL001", domain.RoleDelivery)

	require.NoError(t, courier.PublishLocation("ORD002", domain.Coordinates{Lat: 123, Lng: 0}))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "invalid_location")
	case <-time.After(waitFor):
		t.Fatal("expected rejection")
	}
	assert.Empty(t, sink)
}

func TestHub_CustomerCannotPublishStatus(t *testing.T) {
	hub, _, url := newTestHub(t)

	courier := newTestClient(t, url)
	customer := newTestClient(t, url)
	toCourier := make(chan domain.StatusEvent, 1)
	courier.OnStatusReceived(func(ev domain.StatusEvent) { toCourier <- ev })
	errs := make(chan error, 1)
	customer.OnError(func(err error) { errs <- err })

	connect(t, courier, "DEL001", domain.RoleDelivery)
	connect(t, customer, "CUST001", domain.RoleCustomer)
	courier.JoinRoom("ORD002")
	customer.JoinRoom("ORD002")
	require.Eventually(t, func() bool { return hub.RoomSize("ORD002") == 2 }, waitFor, tick)

	require.NoError(t, customer.PublishStatus("ORD002", domain.StatusDelivered))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "forbidden")
	case <-time.After(waitFor):
		t.Fatal("expected rejection")
	}
	assert.Never(t, func() bool { return len(toCourier) > 0 }, 100*time.Millisecond, tick)
}

func TestHub_PeerLifecycle(t *testing.T) {
	hub, _, url := newTestHub(t)

	c := newTestClient(t, url)
	connect(t, c, "CUST001", domain.RoleCustomer)
	c.JoinRoom("ORD002")
	require.Eventually(t, func() bool { return hub.PeerCount() == 1 && hub.RoomSize("ORD002") == 1 }, waitFor, tick)

	c.Disconnect()
	require.Eventually(t, func() bool { return hub.PeerCount() == 0 && hub.RoomSize("ORD002") == 0 }, waitFor, tick)

	// a fresh connection starts without rooms
	require.NoError(t, c.Connect(context.Background(), "CUST001", domain.RoleCustomer))
	require.Eventually(t, func() bool { return hub.PeerCount() == 1 }, waitFor, tick)
	assert.Equal(t, 0, hub.RoomSize("ORD002"))
}
