package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"kolekta/internal/model"
)

type ProfileStore struct {
	profiles *mongo.Collection
}

func NewProfileStore(ctx context.Context, db *MongoDB) (*ProfileStore, error) {
	profiles := db.Collection("profiles")

	if _, err := profiles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create profiles indexes: %w", err)
	}

	return &ProfileStore{profiles: profiles}, nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.profiles.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

// ListByRoles returns active profiles holding any of the given roles.
func (s *ProfileStore) ListByRoles(ctx context.Context, roles ...model.Role) ([]*model.Profile, error) {
	cursor, err := s.profiles.Find(ctx,
		bson.M{
			"role":   bson.M{"$in": roles},
			"status": model.ProfileStatusActive,
		},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	var results []*model.Profile
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return results, nil
}
