package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/live-tracking/internal/core/domain"
)

// PartnerRepository reads delivery partners from the users collection.
type PartnerRepository struct {
	coll *mongo.Collection
}

func NewPartnerRepository(db *mongo.Database) *PartnerRepository {
	return &PartnerRepository{coll: db.Collection(collectionUsers)}
}

func (r *PartnerRepository) FindByID(ctx context.Context, id string) (*domain.DeliveryPartner, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPartnerNotFound
	}

	var mu mongoUser
	err = r.coll.FindOne(ctx, bson.M{"_id": oid, "role": string(domain.RoleDelivery)}).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPartnerNotFound
		}
		return nil, fmt.Errorf("find partner: %w", err)
	}
	return mu.toPartner(), nil
}

func (r *PartnerRepository) ListAvailable(ctx context.Context) ([]*domain.DeliveryPartner, error) {
	filter := bson.M{"role": string(domain.RoleDelivery), "is_available": bson.M{"$ne": false}}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}

	partners := make([]*domain.DeliveryPartner, 0, len(docs))
	for _, d := range docs {
		partners = append(partners, d.toPartner())
	}
	return partners, nil
}

func (r *PartnerRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPartnerNotFound
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "role": string(domain.RoleDelivery)},
		bson.M{"$set": bson.M{"is_available": available}},
	)
	if err != nil {
		return fmt.Errorf("set partner availability: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPartnerNotFound
	}
	return nil
}

func (mu mongoUser) toPartner() *domain.DeliveryPartner {
	return &domain.DeliveryPartner{
		ID:          mu.ID.Hex(),
		Name:        mu.Name,
		Phone:       mu.Phone,
		IsAvailable: mu.IsAvailable == nil || *mu.IsAvailable,
	}
}
