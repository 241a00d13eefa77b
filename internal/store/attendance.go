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

type AttendanceStore struct {
	attendance *mongo.Collection
}

func NewAttendanceStore(ctx context.Context, db *MongoDB) (*AttendanceStore, error) {
	attendance := db.Collection("collector_attendance")

	if _, err := attendance.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collector_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "logout_time", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create collector_attendance indexes: %w", err)
	}

	return &AttendanceStore{attendance: attendance}, nil
}

// TodayRecord returns the collector's attendance row for date, or nil.
func (s *AttendanceStore) TodayRecord(ctx context.Context, collectorID, date string) (*model.CollectorAttendance, error) {
	var rec model.CollectorAttendance
	err := s.attendance.FindOne(ctx, bson.M{
		"collector_id": collectorID,
		"date":         date,
	}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &rec, nil
}

func (s *AttendanceStore) ClockIn(ctx context.Context, rec *model.CollectorAttendance) error {
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	res, err := s.attendance.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	rec.ID = res.InsertedID.(bson.ObjectID)
	return nil
}

// ClockOut stamps the logout time on an open attendance row. Returns nil
// when the collector has no open row for date.
func (s *AttendanceStore) ClockOut(ctx context.Context, collectorID, date string, at time.Time) (*model.CollectorAttendance, error) {
	var rec model.CollectorAttendance
	err := s.attendance.FindOneAndUpdate(ctx,
		bson.M{
			"collector_id": collectorID,
			"date":         date,
			"logout_time":  bson.M{"$exists": false},
		},
		bson.M{"$set": bson.M{"logout_time": at, "updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clock out: %w", err)
	}
	return &rec, nil
}

// OnDuty returns, in query order, the attendance rows for date with no
// logout time, excluding the given collector.
func (s *AttendanceStore) OnDuty(ctx context.Context, date, exclude string) ([]*model.CollectorAttendance, error) {
	filter := bson.M{
		"date":        date,
		"logout_time": bson.M{"$exists": false},
	}
	if exclude != "" {
		filter["collector_id"] = bson.M{"$ne": exclude}
	}
	cursor, err := s.attendance.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find on-duty collectors: %w", err)
	}
	var results []*model.CollectorAttendance
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode attendance: %w", err)
	}
	return results, nil
}
