package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ScheduleStatus string

const (
	ScheduleStatusDraft     ScheduleStatus = "draft"
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
)

// CollectorActionable reports whether a collector may still accept or
// decline a schedule in this status.
func (s ScheduleStatus) CollectorActionable() bool {
	return s == ScheduleStatusDraft || s == ScheduleStatusActive
}

// ScheduleStop is one ordered stop on a collection route. Stop execution is
// tracked elsewhere; the lifecycle only counts them.
type ScheduleStop struct {
	Sequence    int        `bson:"sequence" json:"sequence"`
	Barangay    string     `bson:"barangay" json:"barangay"`
	Address     string     `bson:"address" json:"address"`
	Completed   bool       `bson:"completed" json:"completed"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

type CollectionSchedule struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`

	StartDate string `bson:"start_date" json:"start_date"`         // YYYY-MM-DD
	EndDate   string `bson:"end_date,omitempty" json:"end_date,omitempty"`
	TimeStart string `bson:"time_start,omitempty" json:"time_start,omitempty"` // HH:MM
	TimeEnd   string `bson:"time_end,omitempty" json:"time_end,omitempty"`

	Stops []ScheduleStop `bson:"stops" json:"stops"`

	Status              ScheduleStatus `bson:"status" json:"status"`
	AssignedCollectorID string         `bson:"assigned_collector_id,omitempty" json:"assigned_collector_id,omitempty"`

	ConfirmedByCollector bool       `bson:"confirmed_by_collector" json:"confirmed_by_collector"`
	ConfirmedAt          *time.Time `bson:"confirmed_at,omitempty" json:"confirmed_at,omitempty"`
	DeclineReason        string     `bson:"decline_reason,omitempty" json:"decline_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
