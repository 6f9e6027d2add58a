package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

const lastLocationTTL = 24 * time.Hour

// saveIfNewer writes the location hash unless the stored timestamp is equal
// or later. Timestamps are unix microseconds so they stay exact as Lua numbers.
var saveIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ts')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'ts', ARGV[1], 'lat', ARGV[2], 'lng', ARGV[3], 'geohash', ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// LastLocationStore keeps the latest location per delivery in Redis.
// Key format: location:<delivery_id>
type LastLocationStore struct {
	client *redis.Client
}

// NewLastLocationStore creates a LastLocationStore wrapping the given Redis client.
func NewLastLocationStore(client *redis.Client) *LastLocationStore {
	return &LastLocationStore{client: client}
}

func (s *LastLocationStore) SaveIfNewer(ctx context.Context, loc domain.LastLocation) (bool, error) {
	n, err := saveIfNewer.Run(ctx, s.client, []string{s.key(loc.DeliveryID)},
		loc.Timestamp.UnixMicro(),
		strconv.FormatFloat(loc.Location.Lat, 'f', -1, 64),
		strconv.FormatFloat(loc.Location.Lng, 'f', -1, 64),
		loc.Geohash,
		lastLocationTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("save last location: %w", err)
	}
	return n == 1, nil
}

func (s *LastLocationStore) Get(ctx context.Context, deliveryID string) (*domain.LastLocation, error) {
	fields, err := s.client.HGetAll(ctx, s.key(deliveryID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get last location: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrLocationNotFound
	}

	lat, err := strconv.ParseFloat(fields["lat"], 64)
	if err != nil {
		return nil, fmt.Errorf("get last location: lat: %w", err)
	}
	lng, err := strconv.ParseFloat(fields["lng"], 64)
	if err != nil {
		return nil, fmt.Errorf("get last location: lng: %w", err)
	}
	ts, err := strconv.ParseInt(fields["ts"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("get last location: ts: %w", err)
	}

	return &domain.LastLocation{
		DeliveryID: deliveryID,
		Location:   domain.Coordinates{Lat: lat, Lng: lng},
		Geohash:    fields["geohash"],
		Timestamp:  time.UnixMicro(ts).UTC(),
	}, nil
}

func (s *LastLocationStore) key(deliveryID string) string {
	return "location:" + deliveryID
}
