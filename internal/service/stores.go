package service

import (
	"context"
	"time"

	"kolekta/internal/model"
)

// Store contracts consumed by the services. Lookups return (nil, nil) when
// no row matches; guarded mutations carry the full eligibility predicate
// (id + assignee + status set) so the precondition check and the write are
// one atomic conditional update, never a read-then-write pair.

type RequestStore interface {
	Insert(ctx context.Context, req *model.CollectionRequest) error
	NextSequence(ctx context.Context, date string) (int64, error)
	FindByID(ctx context.Context, id string) (*model.CollectionRequest, error)
	FindAssigned(ctx context.Context, id, collectorID string) (*model.CollectionRequest, error)

	AcceptByCollector(ctx context.Context, id, collectorID string) (*model.CollectionRequest, error)
	DeclineByCollector(ctx context.Context, id, collectorID, reason string, at time.Time) (*model.CollectionRequest, error)
	AdvanceByCollector(ctx context.Context, id, collectorID string, from, to model.RequestStatus, startedAt *time.Time) (*model.CollectionRequest, error)
	CompleteByCollector(ctx context.Context, id, collectorID, notes string, at time.Time) (*model.CollectionRequest, error)

	Approve(ctx context.Context, id string) (*model.CollectionRequest, error)
	ConfirmPayment(ctx context.Context, id string) (*model.CollectionRequest, error)
	AssignCollector(ctx context.Context, id, collectorID string) (*model.CollectionRequest, error)
	Reject(ctx context.Context, id, reason string) (*model.CollectionRequest, error)
	CancelByRequester(ctx context.Context, id, requesterID, reason string) (*model.CollectionRequest, error)
}

type ScheduleStore interface {
	Insert(ctx context.Context, sched *model.CollectionSchedule) error
	FindByID(ctx context.Context, id string) (*model.CollectionSchedule, error)

	ConfirmByCollector(ctx context.Context, id, collectorID string, at time.Time) (*model.CollectionSchedule, error)
	ReassignAfterDecline(ctx context.Context, id, decliningID, newID, reason string) (*model.CollectionSchedule, error)
	UnassignAfterDecline(ctx context.Context, id, decliningID, reason string) (*model.CollectionSchedule, error)
}

type AttendanceStore interface {
	TodayRecord(ctx context.Context, collectorID, date string) (*model.CollectorAttendance, error)
	ClockIn(ctx context.Context, rec *model.CollectorAttendance) error
	ClockOut(ctx context.Context, collectorID, date string, at time.Time) (*model.CollectorAttendance, error)
	// OnDuty returns attendance rows for date with no logout, in query
	// order, excluding the given collector.
	OnDuty(ctx context.Context, date, exclude string) ([]*model.CollectorAttendance, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	ListByRoles(ctx context.Context, roles ...model.Role) ([]*model.Profile, error)
}

// Notifier accepts fire-and-forget notification inserts. Delivery failures
// are the dispatcher's problem; they never fail the calling transition.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind model.NotificationType, data map[string]any)
}
