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

// RequestStore persists collection requests. Every mutating method issues
// one FindOneAndUpdate whose filter carries the full eligibility predicate
// (id + assignee + status set), so precondition check, authorization and
// write are a single atomic operation. A nil, nil return means the
// predicate matched no row.
type RequestStore struct {
	requests *mongo.Collection
	counters *mongo.Collection
}

func NewRequestStore(ctx context.Context, db *MongoDB) (*RequestStore, error) {
	requests := db.Collection("collection_requests")

	if _, err := requests.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "request_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "assigned_collector_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create collection_requests indexes: %w", err)
	}

	return &RequestStore{
		requests: requests,
		counters: db.Collection("counters"),
	}, nil
}

// NextSequence increments and returns the per-day request counter.
func (s *RequestStore) NextSequence(ctx context.Context, date string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "request-" + date},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next request sequence: %w", err)
	}
	return doc.Seq, nil
}

func (s *RequestStore) Insert(ctx context.Context, req *model.CollectionRequest) error {
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	res, err := s.requests.InsertOne(ctx, req)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	req.ID = res.InsertedID.(bson.ObjectID)
	return nil
}

func (s *RequestStore) FindByID(ctx context.Context, id string) (*model.CollectionRequest, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var req model.CollectionRequest
	err = s.requests.FindOne(ctx, bson.M{"_id": oid}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find request: %w", err)
	}
	return &req, nil
}

// FindAssigned returns the request only if it is assigned to the collector.
// Used to classify a guarded-update miss, never as a precondition check.
func (s *RequestStore) FindAssigned(ctx context.Context, id, collectorID string) (*model.CollectionRequest, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var req model.CollectionRequest
	err = s.requests.FindOne(ctx, bson.M{"_id": oid, "assigned_collector_id": collectorID}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find assigned request: %w", err)
	}
	return &req, nil
}

func (s *RequestStore) AcceptByCollector(ctx context.Context, id, collectorID string) (*model.CollectionRequest, error) {
	return s.guardedUpdate(ctx,
		bson.M{"assigned_collector_id": collectorID, "status": model.RequestStatusAssigned},
		id,
		bson.M{"$set": bson.M{
			"status":     model.RequestStatusAcceptedByCollector,
			"updated_at": time.Now(),
		}},
	)
}

func (s *RequestStore) DeclineByCollector(ctx context.Context, id, collectorID, reason string, at time.Time) (*model.CollectionRequest, error) {
	return s.guardedUpdate(ctx,
		bson.M{"assigned_collector_id": collectorID, "status": model.RequestStatusAssigned},
		id,
		bson.M{
			"$set": bson.M{
				"status":                   model.RequestStatusDeclinedByCollector,
				"collector_decline_reason": reason,
				"collector_declined_at":    at,
				"updated_at":               at,
			},
			"$unset": bson.M{"assigned_collector_id": ""},
			"$inc":   bson.M{"reassignment_count": 1},
		},
	)
}

func (s *RequestStore) AdvanceByCollector(ctx context.Context, id, collectorID string, from, to model.RequestStatus, startedAt *time.Time) (*model.CollectionRequest, error) {
	set := bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}
	if startedAt != nil {
		set["started_at"] = *startedAt
	}
	return s.guardedUpdate(ctx,
		bson.M{"assigned_collector_id": collectorID, "status": from},
		id,
		bson.M{"$set": set},
	)
}

func (s *RequestStore) CompleteByCollector(ctx context.Context, id, collectorID, notes string, at time.Time) (*model.CollectionRequest, error) {
	set := bson.M{
		"status":       model.RequestStatusCompleted,
		"completed_at": at,
		"updated_at":   at,
	}
	if notes != "" {
		set["completion_notes"] = notes
	}
	return s.guardedUpdate(ctx,
		bson.M{"assigned_collector_id": collectorID, "status": model.RequestStatusInProgress},
		id,
		bson.M{"$set": set},
	)
}

func (s *RequestStore) Approve(ctx context.Context, id string) (*model.CollectionRequest, error) {
	return s.guardedUpdate(ctx,
		bson.M{"status": model.RequestStatusPending},
		id,
		bson.M{"$set": bson.M{
			"status":     model.RequestStatusAccepted,
			"updated_at": time.Now(),
		}},
	)
}

func (s *RequestStore) ConfirmPayment(ctx context.Context, id string) (*model.CollectionRequest, error) {
	return s.guardedUpdate(ctx,
		bson.M{"status": model.RequestStatusAccepted},
		id,
		bson.M{"$set": bson.M{
			"status":     model.RequestStatusPaymentConfirmed,
			"updated_at": time.Now(),
		}},
	)
}

func (s *RequestStore) AssignCollector(ctx context.Context, id, collectorID string) (*model.CollectionRequest, error) {
	return s.guardedUpdate(ctx,
		bson.M{"status": model.RequestStatusPaymentConfirmed},
		id,
		bson.M{"$set": bson.M{
			"status":                model.RequestStatusAssigned,
			"assigned_collector_id": collectorID,
			"updated_at":            time.Now(),
		}},
	)
}

func (s *RequestStore) Reject(ctx context.Context, id, reason string) (*model.CollectionRequest, error) {
	return s.guardedUpdate(ctx,
		bson.M{"status": bson.M{"$in": []model.RequestStatus{model.RequestStatusPending, model.RequestStatusAccepted}}},
		id,
		bson.M{"$set": bson.M{
			"status":           model.RequestStatusRejected,
			"rejection_reason": reason,
			"updated_at":       time.Now(),
		}},
	)
}

func (s *RequestStore) CancelByRequester(ctx context.Context, id, requesterID, reason string) (*model.CollectionRequest, error) {
	return s.guardedUpdate(ctx,
		bson.M{
			"requester_id": requesterID,
			"status":       bson.M{"$in": []model.RequestStatus{model.RequestStatusPending, model.RequestStatusAccepted}},
		},
		id,
		bson.M{"$set": bson.M{
			"status":              model.RequestStatusCancelled,
			"cancellation_reason": reason,
			"updated_at":          time.Now(),
		}},
	)
}

func (s *RequestStore) guardedUpdate(ctx context.Context, guard bson.M, id string, update bson.M) (*model.CollectionRequest, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	filter := bson.M{"_id": oid}
	for k, v := range guard {
		filter[k] = v
	}

	var req model.CollectionRequest
	err = s.requests.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	return &req, nil
}
