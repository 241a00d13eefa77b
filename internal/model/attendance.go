package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// CollectorAttendance is one clock-in record per collector per day.
// A nil LogoutTime on today's date is the sole signal that the collector
// is on duty and may receive reassigned work.
type CollectorAttendance struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	CollectorID string        `bson:"collector_id" json:"collector_id"`
	Date        string        `bson:"date" json:"date"` // YYYY-MM-DD
	LoginTime   time.Time     `bson:"login_time" json:"login_time"`
	LogoutTime  *time.Time    `bson:"logout_time,omitempty" json:"logout_time,omitempty"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

func (a *CollectorAttendance) OnDuty() bool {
	return a.LogoutTime == nil
}
