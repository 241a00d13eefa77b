package service

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-logger/glog"

	"kolekta/internal/identity"
	"kolekta/internal/model"
)

// SubstitutePicker chooses a replacement collector from the on-duty pool
// when a schedule is declined. The candidate slice is never empty.
type SubstitutePicker interface {
	Pick(candidates []*model.CollectorAttendance) string
}

// FirstOnDuty picks the first candidate in query order. No ranking by load,
// skill or proximity.
type FirstOnDuty struct{}

func (FirstOnDuty) Pick(candidates []*model.CollectorAttendance) string {
	return candidates[0].CollectorID
}

// DeclineScheduleResult distinguishes the two decline outcomes. Both are
// success from the state machine's point of view.
type DeclineScheduleResult struct {
	Schedule           *model.CollectionSchedule
	ReassignmentFailed bool
	NewCollectorID     string
}

// ScheduleService drives the schedule lifecycle (draft/active/completed/
// cancelled plus the collector confirm flag) and the automatic reassignment
// that runs on decline.
type ScheduleService struct {
	schedules  ScheduleStore
	attendance AttendanceStore
	profiles   ProfileStore
	picker     SubstitutePicker
	notifier   Notifier
	log        glog.Logger
	now        func() time.Time
}

func NewScheduleService(schedules ScheduleStore, attendance AttendanceStore, profiles ProfileStore, notifier Notifier, log glog.Logger) *ScheduleService {
	return &ScheduleService{
		schedules:  schedules,
		attendance: attendance,
		profiles:   profiles,
		picker:     FirstOnDuty{},
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

// WithPicker swaps the substitute selection strategy.
func (s *ScheduleService) WithPicker(p SubstitutePicker) *ScheduleService {
	s.picker = p
	return s
}

// CreateScheduleInput carries the staff-supplied fields for a new schedule.
type CreateScheduleInput struct {
	Name                string
	Description         string
	StartDate           string
	EndDate             string
	TimeStart           string
	TimeEnd             string
	Stops               []model.ScheduleStop
	AssignedCollectorID string
	Activate            bool
}

// Create opens a schedule in draft, or directly active when requested.
func (s *ScheduleService) Create(ctx context.Context, actor identity.Actor, in CreateScheduleInput) (*model.CollectionSchedule, error) {
	if !actor.Is(model.RoleStaff, model.RoleAdmin) {
		return nil, ErrNotFoundOrUnauthorized
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationErr("a schedule name is required")
	}
	if _, err := time.Parse(time.DateOnly, in.StartDate); err != nil {
		return nil, validationErr("a valid start date is required")
	}
	if in.EndDate != "" {
		if _, err := time.Parse(time.DateOnly, in.EndDate); err != nil {
			return nil, validationErr("invalid end date")
		}
		if in.EndDate < in.StartDate {
			return nil, validationErr("end date precedes start date")
		}
	}

	status := model.ScheduleStatusDraft
	if in.Activate {
		status = model.ScheduleStatusActive
	}
	stops := make([]model.ScheduleStop, len(in.Stops))
	copy(stops, in.Stops)
	for i := range stops {
		stops[i].Sequence = i + 1
	}

	sched := &model.CollectionSchedule{
		Name:                in.Name,
		Description:         in.Description,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		TimeStart:           in.TimeStart,
		TimeEnd:             in.TimeEnd,
		Stops:               stops,
		Status:              status,
		AssignedCollectorID: in.AssignedCollectorID,
	}
	if err := s.schedules.Insert(ctx, sched); err != nil {
		return nil, persistenceErr(err)
	}
	s.log.Info("schedule %q created with %d stops", sched.Name, len(stops))
	return sched, nil
}

// Accept records the collector's confirmation. Calling it again while the
// schedule stays draft or active simply reconfirms.
func (s *ScheduleService) Accept(ctx context.Context, actor identity.Actor, scheduleID string) (*model.CollectionSchedule, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	sched, err := s.schedules.ConfirmByCollector(ctx, scheduleID, actor.ID, s.now())
	if err != nil {
		return nil, persistenceErr(err)
	}
	if sched == nil {
		return nil, ErrNotFoundOrUnauthorized
	}
	s.log.Info("schedule %q confirmed by collector %s", sched.Name, actor.ID)
	return sched, nil
}

// Decline releases the schedule from the declining collector and tries to
// substitute another collector who is on duty today. With a candidate the
// schedule goes active and unconfirmed under the new assignee; with none it
// falls back to an unassigned draft and every staff/admin profile is told
// to intervene.
func (s *ScheduleService) Decline(ctx context.Context, actor identity.Actor, scheduleID, reason string) (*DeclineScheduleResult, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	if strings.TrimSpace(reason) == "" {
		return nil, validationErr("a decline reason is required")
	}

	today := s.now().Format(time.DateOnly)
	candidates, err := s.attendance.OnDuty(ctx, today, actor.ID)
	if err != nil {
		return nil, persistenceErr(err)
	}

	if len(candidates) == 0 {
		sched, err := s.schedules.UnassignAfterDecline(ctx, scheduleID, actor.ID, reason)
		if err != nil {
			return nil, persistenceErr(err)
		}
		if sched == nil {
			return nil, ErrNotFoundOrUnauthorized
		}

		data := scheduleData(sched)
		data["reason"] = reason
		staff, err := s.profiles.ListByRoles(ctx, model.RoleStaff, model.RoleAdmin)
		if err != nil {
			s.log.Warn("schedule %q unassignable but staff lookup failed: %v", sched.Name, err)
		}
		for _, p := range staff {
			s.notifier.Notify(ctx, p.ID, model.NotifyScheduleUnassignable, data)
		}
		s.log.Warn("schedule %q declined by %s with no on-duty substitute", sched.Name, actor.ID)
		return &DeclineScheduleResult{Schedule: sched, ReassignmentFailed: true}, nil
	}

	substitute := s.picker.Pick(candidates)
	sched, err := s.schedules.ReassignAfterDecline(ctx, scheduleID, actor.ID, substitute, reason)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if sched == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	data := scheduleData(sched)
	data["reason"] = reason
	s.notifier.Notify(ctx, substitute, model.NotifyScheduleReassigned, data)
	s.log.Info("schedule %q reassigned from %s to %s", sched.Name, actor.ID, substitute)
	return &DeclineScheduleResult{Schedule: sched, NewCollectorID: substitute}, nil
}

// Get returns a schedule by id. Collectors only see their own assignment.
func (s *ScheduleService) Get(ctx context.Context, actor identity.Actor, scheduleID string) (*model.CollectionSchedule, error) {
	sched, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if sched == nil {
		return nil, ErrNotFoundOrUnauthorized
	}
	if actor.Is(model.RoleCollector) && sched.AssignedCollectorID != actor.ID {
		return nil, ErrNotFoundOrUnauthorized
	}
	return sched, nil
}

func scheduleData(sched *model.CollectionSchedule) map[string]any {
	return map[string]any{
		"schedule_id": sched.ID.Hex(),
		"name":        sched.Name,
		"start_date":  sched.StartDate,
		"stops":       len(sched.Stops),
		"status":      string(sched.Status),
	}
}
