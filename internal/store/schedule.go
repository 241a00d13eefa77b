package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"kolekta/internal/model"
)

// collectorActionable matches the statuses in which a collector may still
// confirm or decline.
var collectorActionable = []model.ScheduleStatus{
	model.ScheduleStatusDraft,
	model.ScheduleStatusActive,
}

type ScheduleStore struct {
	schedules *mongo.Collection
}

func NewScheduleStore(ctx context.Context, db *MongoDB) (*ScheduleStore, error) {
	schedules := db.Collection("collection_schedules")

	if _, err := schedules.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assigned_collector_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "start_date", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create collection_schedules indexes: %w", err)
	}

	return &ScheduleStore{schedules: schedules}, nil
}

func (s *ScheduleStore) Insert(ctx context.Context, sched *model.CollectionSchedule) error {
	sched.CreatedAt = time.Now()
	sched.UpdatedAt = sched.CreatedAt
	if sched.Stops == nil {
		sched.Stops = []model.ScheduleStop{}
	}
	res, err := s.schedules.InsertOne(ctx, sched)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	sched.ID = res.InsertedID.(bson.ObjectID)
	return nil
}

func (s *ScheduleStore) FindByID(ctx context.Context, id string) (*model.CollectionSchedule, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var sched model.CollectionSchedule
	err = s.schedules.FindOne(ctx, bson.M{"_id": oid}).Decode(&sched)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find schedule: %w", err)
	}
	return &sched, nil
}

// ConfirmByCollector sets the confirmation flag. The status is untouched,
// so a second call while still draft/active reconfirms.
func (s *ScheduleStore) ConfirmByCollector(ctx context.Context, id, collectorID string, at time.Time) (*model.CollectionSchedule, error) {
	return s.guardedUpdate(ctx, id, collectorID, bson.M{"$set": bson.M{
		"confirmed_by_collector": true,
		"confirmed_at":           at,
		"updated_at":             at,
	}})
}

// ReassignAfterDecline atomically swaps the assignee and resets the
// confirmation flag; the schedule comes out active under the substitute.
func (s *ScheduleStore) ReassignAfterDecline(ctx context.Context, id, decliningID, newID, reason string) (*model.CollectionSchedule, error) {
	return s.guardedUpdate(ctx, id, decliningID, bson.M{
		"$set": bson.M{
			"assigned_collector_id":  newID,
			"status":                 model.ScheduleStatusActive,
			"confirmed_by_collector": false,
			"decline_reason":         reason,
			"updated_at":             time.Now(),
		},
		"$unset": bson.M{"confirmed_at": ""},
	})
}

// UnassignAfterDecline clears the assignee and parks the schedule as an
// unassigned draft for staff intervention.
func (s *ScheduleStore) UnassignAfterDecline(ctx context.Context, id, decliningID, reason string) (*model.CollectionSchedule, error) {
	return s.guardedUpdate(ctx, id, decliningID, bson.M{
		"$set": bson.M{
			"status":                 model.ScheduleStatusDraft,
			"confirmed_by_collector": false,
			"decline_reason":         reason,
			"updated_at":             time.Now(),
		},
		"$unset": bson.M{"assigned_collector_id": "", "confirmed_at": ""},
	})
}

func (s *ScheduleStore) guardedUpdate(ctx context.Context, id, collectorID string, update bson.M) (*model.CollectionSchedule, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	filter := bson.M{
		"_id":                   oid,
		"assigned_collector_id": collectorID,
		"status":                bson.M{"$in": collectorActionable},
	}

	var sched model.CollectionSchedule
	err = s.schedules.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&sched)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return &sched, nil
}
