package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/live-tracking/internal/core/domain"
	"github.com/99minutos/live-tracking/internal/core/ports"
)

const collectionLocationEvents = "location_events"

// LocationRepository implements ports.LocationAuditRepository using MongoDB.
type LocationRepository struct {
	db *mongo.Database
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *mongo.Database) ports.LocationAuditRepository {
	return &LocationRepository{db: db}
}

// InsertLocation persists a relayed location event to the location_events audit collection.
func (r *LocationRepository) InsertLocation(ctx context.Context, event *domain.LocationEvent, senderID string) error {
	doc := bson.M{
		"delivery_id": event.DeliveryID,
		"location": bson.M{
			"lat": event.Location.Lat,
			"lng": event.Location.Lng,
		},
		"timestamp":    event.Timestamp.UTC(),
		"sender_id":    senderID,
		"processed_at": time.Now().UTC(),
	}

	_, err := r.db.Collection(collectionLocationEvents).InsertOne(ctx, doc)
	return err
}
