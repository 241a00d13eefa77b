package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type RequestStatus string

const (
	RequestStatusPending             RequestStatus = "pending"
	RequestStatusAccepted            RequestStatus = "accepted"
	RequestStatusPaymentConfirmed    RequestStatus = "payment_confirmed"
	RequestStatusAssigned            RequestStatus = "assigned"
	RequestStatusAcceptedByCollector RequestStatus = "accepted_by_collector"
	RequestStatusEnRoute             RequestStatus = "en_route"
	RequestStatusAtLocation          RequestStatus = "at_location"
	RequestStatusInProgress          RequestStatus = "in_progress"
	RequestStatusCompleted           RequestStatus = "completed"
	RequestStatusRejected            RequestStatus = "rejected"
	RequestStatusCancelled           RequestStatus = "cancelled"
	RequestStatusDeclinedByCollector RequestStatus = "declined_by_collector"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityUrgent Priority = "urgent"
)

// collectorProgress maps each status a collector may report to the status
// the request must currently hold. Any other current/next pair is rejected.
var collectorProgress = map[RequestStatus]RequestStatus{
	RequestStatusEnRoute:    RequestStatusAcceptedByCollector,
	RequestStatusAtLocation: RequestStatusEnRoute,
	RequestStatusInProgress: RequestStatusAtLocation,
}

// ProgressPredecessor returns the status a request must be in before a
// collector can report next, and whether next is reportable at all.
func ProgressPredecessor(next RequestStatus) (RequestStatus, bool) {
	from, ok := collectorProgress[next]
	return from, ok
}

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityUrgent:
		return true
	}
	return false
}

type CollectionRequest struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestNumber string        `bson:"request_number" json:"request_number"`

	RequesterID    string `bson:"requester_id" json:"requester_id"`
	RequesterName  string `bson:"requester_name" json:"requester_name"`
	RequesterPhone string `bson:"requester_phone" json:"requester_phone"`

	Barangay string `bson:"barangay" json:"barangay"`
	Address  string `bson:"address" json:"address"`

	Priority          Priority `bson:"priority" json:"priority"`
	PreferredDate     string   `bson:"preferred_date" json:"preferred_date"` // YYYY-MM-DD
	PreferredTimeSlot string   `bson:"preferred_time_slot,omitempty" json:"preferred_time_slot,omitempty"`
	Instructions      string   `bson:"special_instructions,omitempty" json:"special_instructions,omitempty"`

	Status              RequestStatus `bson:"status" json:"status"`
	AssignedCollectorID string        `bson:"assigned_collector_id,omitempty" json:"assigned_collector_id,omitempty"`
	ReassignmentCount   int           `bson:"reassignment_count" json:"reassignment_count"`

	DeclineReason string     `bson:"collector_decline_reason,omitempty" json:"collector_decline_reason,omitempty"`
	DeclinedAt    *time.Time `bson:"collector_declined_at,omitempty" json:"collector_declined_at,omitempty"`

	StartedAt       *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	CompletedAt     *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CompletionNotes string     `bson:"completion_notes,omitempty" json:"completion_notes,omitempty"`

	CancellationReason string `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty"`
	RejectionReason    string `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
