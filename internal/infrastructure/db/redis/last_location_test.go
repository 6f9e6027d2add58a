package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

func newTestStore(t *testing.T) (*LastLocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLastLocationStore(client), mr
}

func TestLastLocationStore_SaveAndGet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 10, 18, 12, 0, 0, 123456000, time.UTC)

	saved, err := store.SaveIfNewer(ctx, domain.LastLocation{
		DeliveryID: "ORD002",
		Location:   domain.Coordinates{Lat: 37.7849, Lng: -122.4094},
		Geohash:    "9q8yyw8",
		Timestamp:  ts,
	})
	require.NoError(t, err)
	assert.True(t, saved)

	loc, err := store.Get(ctx, "ORD002")
	require.NoError(t, err)
	assert.Equal(t, 37.7849, loc.Location.Lat)
	assert.Equal(t, -122.4094, loc.Location.Lng)
	assert.Equal(t, "9q8yyw8", loc.Geohash)
	assert.True(t, ts.Equal(loc.Timestamp))

	assert.Equal(t, lastLocationTTL, mr.TTL("location:ORD002"))
}

func TestLastLocationStore_OlderIsIgnored(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	ts := time.Now().UTC()

	_, err := store.SaveIfNewer(ctx, domain.LastLocation{DeliveryID: "ORD002", Location: domain.Coordinates{Lat: 1, Lng: 1}, Timestamp: ts})
	require.NoError(t, err)

	for _, older := range []time.Time{ts, ts.Add(-time.Second)} {
		saved, err := store.SaveIfNewer(ctx, domain.LastLocation{DeliveryID: "ORD002", Location: domain.Coordinates{Lat: 2, Lng: 2}, Timestamp: older})
		require.NoError(t, err)
		assert.False(t, saved)
	}

	saved, err := store.SaveIfNewer(ctx, domain.LastLocation{DeliveryID: "ORD002", Location: domain.Coordinates{Lat: 3, Lng: 3}, Timestamp: ts.Add(time.Second)})
	require.NoError(t, err)
	assert.True(t, saved)

	loc, err := store.Get(ctx, "ORD002")
	require.NoError(t, err)
	assert.Equal(t, 3.0, loc.Location.Lat)
}

func TestLastLocationStore_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "ORD404")
	assert.True(t, errors.Is(err, domain.ErrLocationNotFound))
}

func TestLastLocationStore_ConnectionError(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.SaveIfNewer(context.Background(), domain.LastLocation{DeliveryID: "ORD001", Timestamp: time.Now()})
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	addr := mr.Addr()

	client, err := Connect(context.Background(), Config{Addr: addr})
	require.NoError(t, err)
	_ = client.Close()

	mr.Close()
	_, err = Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}
