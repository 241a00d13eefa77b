package service

import (
	"context"
	"time"

	"github.com/goliatone/go-logger/glog"

	"kolekta/internal/identity"
	"kolekta/internal/model"
)

// AttendanceService tracks collector clock-in/clock-out. The attendance
// rows it writes are what the reassignment resolver reads to find on-duty
// substitutes.
type AttendanceService struct {
	attendance AttendanceStore
	log        glog.Logger
	now        func() time.Time
}

func NewAttendanceService(attendance AttendanceStore, log glog.Logger) *AttendanceService {
	return &AttendanceService{attendance: attendance, log: log, now: time.Now}
}

// ClockIn opens today's attendance record for the collector.
func (s *AttendanceService) ClockIn(ctx context.Context, actor identity.Actor) (*model.CollectorAttendance, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	now := s.now()
	date := now.Format(time.DateOnly)

	existing, err := s.attendance.TodayRecord(ctx, actor.ID, date)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if existing != nil {
		return nil, validationErr("already clocked in today")
	}

	rec := &model.CollectorAttendance{
		CollectorID: actor.ID,
		Date:        date,
		LoginTime:   now,
	}
	if err := s.attendance.ClockIn(ctx, rec); err != nil {
		return nil, persistenceErr(err)
	}
	s.log.Info("collector %s clocked in", actor.ID)
	return rec, nil
}

// ClockOut closes today's attendance record, taking the collector out of
// the substitute pool.
func (s *AttendanceService) ClockOut(ctx context.Context, actor identity.Actor) (*model.CollectorAttendance, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	now := s.now()
	date := now.Format(time.DateOnly)

	rec, err := s.attendance.ClockOut(ctx, actor.ID, date, now)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if rec == nil {
		return nil, validationErr("not clocked in today")
	}
	s.log.Info("collector %s clocked out", actor.ID)
	return rec, nil
}
