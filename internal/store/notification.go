package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"kolekta/internal/model"
)

type NotificationStore struct {
	notifications *mongo.Collection
}

func NewNotificationStore(ctx context.Context, db *MongoDB) (*NotificationStore, error) {
	notifications := db.Collection("notifications")

	if _, err := notifications.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "dedupe_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}); err != nil {
		return nil, fmt.Errorf("create notifications indexes: %w", err)
	}

	return &NotificationStore{notifications: notifications}, nil
}

// Upsert inserts the notification, or leaves the existing row alone when a
// retried delivery carries a dedupe key that already landed.
func (s *NotificationStore) Upsert(ctx context.Context, n *model.Notification) error {
	_, err := s.notifications.UpdateOne(ctx,
		bson.M{"dedupe_key": n.DedupeKey},
		bson.M{"$setOnInsert": bson.M{
			"dedupe_key": n.DedupeKey,
			"user_id":    n.UserID,
			"type":       n.Type,
			"title":      n.Title,
			"message":    n.Message,
			"payload":    n.Payload,
			"is_read":    false,
			"created_at": n.CreatedAt,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}
