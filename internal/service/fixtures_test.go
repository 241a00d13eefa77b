package service

import (
	"context"
	"io"
	"time"

	"github.com/goliatone/go-logger/glog"

	"kolekta/internal/identity"
	"kolekta/internal/model"
	"kolekta/internal/notify"
	"kolekta/internal/store"
)

type fixture struct {
	requests   *store.MemoryRequestStore
	schedules  *store.MemoryScheduleStore
	attendance *store.MemoryAttendanceStore
	profiles   *store.MemoryProfileStore
	sink       *store.MemoryNotificationStore

	requestSvc  *RequestService
	scheduleSvc *ScheduleService
	attendSvc   *AttendanceService

	now time.Time
}

var (
	client    = identity.Actor{ID: "client-1", Role: model.RoleClient}
	staff     = identity.Actor{ID: "staff-1", Role: model.RoleStaff}
	admin     = identity.Actor{ID: "admin-1", Role: model.RoleAdmin}
	collector = identity.Actor{ID: "collector-1", Role: model.RoleCollector}
	sub       = identity.Actor{ID: "collector-2", Role: model.RoleCollector}
)

func newFixture() *fixture {
	f := &fixture{
		requests:   store.NewMemoryRequestStore(),
		schedules:  store.NewMemoryScheduleStore(),
		attendance: store.NewMemoryAttendanceStore(),
		profiles:   store.NewMemoryProfileStore(),
		sink:       store.NewMemoryNotificationStore(),
		now:        time.Date(2025, 6, 2, 8, 30, 0, 0, time.UTC),
	}

	logger := glog.NewLogger(glog.WithWriter(io.Discard))
	dispatcher := notify.NewDispatcher(f.sink, logger)

	f.requestSvc = NewRequestService(f.requests, f.profiles, dispatcher, logger)
	f.scheduleSvc = NewScheduleService(f.schedules, f.attendance, f.profiles, dispatcher, logger)
	f.attendSvc = NewAttendanceService(f.attendance, logger)

	f.requestSvc.now = func() time.Time { return f.now }
	f.scheduleSvc.now = func() time.Time { return f.now }
	f.attendSvc.now = func() time.Time { return f.now }

	for _, a := range []identity.Actor{client, staff, admin, collector, sub} {
		f.profiles.Put(&model.Profile{ID: a.ID, Role: a.Role, Status: model.ProfileStatusActive})
	}
	return f
}

func (f *fixture) today() string {
	return f.now.Format(time.DateOnly)
}

// assignedRequest walks a fresh request through the staff path so it sits
// in assigned under the given collector.
func (f *fixture) assignedRequest(collectorID string) *model.CollectionRequest {
	ctx := context.Background()
	req, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		RequesterName: "Ana Reyes",
		Barangay:      "San Isidro",
		Address:       "12 Mabini St",
		Priority:      model.PriorityMedium,
	})
	if err != nil {
		panic(err)
	}
	id := req.ID.Hex()
	if _, err := f.requestSvc.Approve(ctx, staff, id); err != nil {
		panic(err)
	}
	if _, err := f.requestSvc.ConfirmPayment(ctx, staff, id); err != nil {
		panic(err)
	}
	req, err = f.requestSvc.Assign(ctx, staff, id, collectorID)
	if err != nil {
		panic(err)
	}
	return req
}

// assignedSchedule inserts a schedule assigned to collectorID in the given
// status.
func (f *fixture) assignedSchedule(collectorID string, status model.ScheduleStatus) *model.CollectionSchedule {
	sched := &model.CollectionSchedule{
		Name:      "North Route",
		StartDate: f.today(),
		Stops: []model.ScheduleStop{
			{Sequence: 1, Barangay: "San Isidro", Address: "Market"},
			{Sequence: 2, Barangay: "Poblacion", Address: "Plaza"},
		},
		Status:              status,
		AssignedCollectorID: collectorID,
	}
	if err := f.schedules.Insert(context.Background(), sched); err != nil {
		panic(err)
	}
	return sched
}

// clockIn puts a collector on duty for today.
func (f *fixture) clockIn(collectorID string) {
	err := f.attendance.ClockIn(context.Background(), &model.CollectorAttendance{
		CollectorID: collectorID,
		Date:        f.today(),
		LoginTime:   f.now,
	})
	if err != nil {
		panic(err)
	}
}
