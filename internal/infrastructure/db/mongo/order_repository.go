package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

const collectionOrders = "orders"

type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

// Create inserts a new order document.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, o)
	return err
}

// FindByID retrieves an order by its id.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var o domain.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// ListByVendor returns the vendor's orders, newest first.
func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID string) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{"vendor_id": vendorID})
}

// ListByPartner returns the orders assigned to a delivery partner, newest first.
func (r *OrderRepository) ListByPartner(ctx context.Context, partnerID string) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{"delivery_partner_id": partnerID})
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Assign sets the partner and moves the order to assigned when it is still
// in the expected status.
func (r *OrderRepository) Assign(ctx context.Context, id string, partner domain.DeliveryPartner, expected domain.OrderStatus, ts time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":                string(domain.StatusAssigned),
			"delivery_partner_id":   partner.ID,
			"delivery_partner_name": partner.Name,
			"updated_at":            ts.UTC(),
		},
		"$push": bson.M{"status_history": domain.StatusHistoryEntry{Status: domain.StatusAssigned, Timestamp: ts.UTC()}},
	}
	return r.conditionalUpdate(ctx, id, expected, update)
}

// UpdateStatus atomically sets the status and appends a history entry when
// the order is still in the expected status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, expected, next domain.OrderStatus, ts time.Time, notes string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set":  bson.M{"status": string(next), "updated_at": ts.UTC()},
		"$push": bson.M{"status_history": domain.StatusHistoryEntry{Status: next, Timestamp: ts.UTC(), Notes: notes}},
	}
	return r.conditionalUpdate(ctx, id, expected, update)
}

func (r *OrderRepository) conditionalUpdate(ctx context.Context, id string, expected domain.OrderStatus, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": string(expected)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// either gone or changed concurrently
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("%w (order %s is no longer %s)", domain.ErrInvalidTransition, id, expected)
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "vendor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "delivery_partner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
