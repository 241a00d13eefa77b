package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type NotificationType string

const (
	NotifyRequestAssigned      NotificationType = "request_assigned"
	NotifyRequestAccepted      NotificationType = "request_accepted"
	NotifyRequestDeclined      NotificationType = "request_declined"
	NotifyRequestStatus        NotificationType = "request_status"
	NotifyRequestCompleted     NotificationType = "request_completed"
	NotifyRequestCancelled     NotificationType = "request_cancelled"
	NotifyRequestRejected      NotificationType = "request_rejected"
	NotifyScheduleReassigned   NotificationType = "schedule_reassigned"
	NotifyScheduleUnassignable NotificationType = "schedule_unassignable"
)

// Notification is one fire-and-forget message addressed to a user.
// DedupeKey makes retried inserts upserts, so at-least-once delivery
// never produces duplicate rows.
type Notification struct {
	ID        bson.ObjectID    `bson:"_id,omitempty" json:"id"`
	DedupeKey string           `bson:"dedupe_key" json:"dedupe_key"`
	UserID    string           `bson:"user_id" json:"user_id"`
	Type      NotificationType `bson:"type" json:"type"`
	Title     string           `bson:"title" json:"title"`
	Message   string           `bson:"message" json:"message"`
	Payload   map[string]any   `bson:"payload,omitempty" json:"payload,omitempty"`
	IsRead    bool             `bson:"is_read" json:"is_read"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at"`
}
