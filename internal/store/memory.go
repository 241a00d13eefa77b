package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"kolekta/internal/model"
)

// In-memory counterparts of the Mongo stores. They back tests and the
// --in-memory dev mode with the same guarded-update semantics: every
// mutation evaluates its eligibility predicate and applies the change under
// one lock acquisition.

type MemoryRequestStore struct {
	mu       sync.Mutex
	requests map[string]*model.CollectionRequest
	order    []string
	counters map[string]int64
}

func NewMemoryRequestStore() *MemoryRequestStore {
	return &MemoryRequestStore{
		requests: make(map[string]*model.CollectionRequest),
		counters: make(map[string]int64),
	}
}

func (s *MemoryRequestStore) NextSequence(_ context.Context, date string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[date]++
	return s.counters[date], nil
}

func (s *MemoryRequestStore) Insert(_ context.Context, req *model.CollectionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = bson.NewObjectID()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	s.requests[req.ID.Hex()] = &cp
	s.order = append(s.order, req.ID.Hex())
	return nil
}

func (s *MemoryRequestStore) FindByID(_ context.Context, id string) (*model.CollectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req, ok := s.requests[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryRequestStore) FindAssigned(_ context.Context, id, collectorID string) (*model.CollectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req, ok := s.requests[id]; ok && req.AssignedCollectorID == collectorID {
		cp := *req
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryRequestStore) AcceptByCollector(_ context.Context, id, collectorID string) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.AssignedCollectorID != collectorID || req.Status != model.RequestStatusAssigned {
			return false
		}
		req.Status = model.RequestStatusAcceptedByCollector
		return true
	})
}

func (s *MemoryRequestStore) DeclineByCollector(_ context.Context, id, collectorID, reason string, at time.Time) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.AssignedCollectorID != collectorID || req.Status != model.RequestStatusAssigned {
			return false
		}
		req.Status = model.RequestStatusDeclinedByCollector
		req.AssignedCollectorID = ""
		req.DeclineReason = reason
		ts := at
		req.DeclinedAt = &ts
		req.ReassignmentCount++
		return true
	})
}

func (s *MemoryRequestStore) AdvanceByCollector(_ context.Context, id, collectorID string, from, to model.RequestStatus, startedAt *time.Time) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.AssignedCollectorID != collectorID || req.Status != from {
			return false
		}
		req.Status = to
		if startedAt != nil {
			ts := *startedAt
			req.StartedAt = &ts
		}
		return true
	})
}

func (s *MemoryRequestStore) CompleteByCollector(_ context.Context, id, collectorID, notes string, at time.Time) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.AssignedCollectorID != collectorID || req.Status != model.RequestStatusInProgress {
			return false
		}
		req.Status = model.RequestStatusCompleted
		ts := at
		req.CompletedAt = &ts
		req.CompletionNotes = notes
		return true
	})
}

func (s *MemoryRequestStore) Approve(_ context.Context, id string) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.Status != model.RequestStatusPending {
			return false
		}
		req.Status = model.RequestStatusAccepted
		return true
	})
}

func (s *MemoryRequestStore) ConfirmPayment(_ context.Context, id string) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.Status != model.RequestStatusAccepted {
			return false
		}
		req.Status = model.RequestStatusPaymentConfirmed
		return true
	})
}

func (s *MemoryRequestStore) AssignCollector(_ context.Context, id, collectorID string) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.Status != model.RequestStatusPaymentConfirmed {
			return false
		}
		req.Status = model.RequestStatusAssigned
		req.AssignedCollectorID = collectorID
		return true
	})
}

func (s *MemoryRequestStore) Reject(_ context.Context, id, reason string) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.Status != model.RequestStatusPending && req.Status != model.RequestStatusAccepted {
			return false
		}
		req.Status = model.RequestStatusRejected
		req.RejectionReason = reason
		return true
	})
}

func (s *MemoryRequestStore) CancelByRequester(_ context.Context, id, requesterID, reason string) (*model.CollectionRequest, error) {
	return s.update(id, func(req *model.CollectionRequest) bool {
		if req.RequesterID != requesterID {
			return false
		}
		if req.Status != model.RequestStatusPending && req.Status != model.RequestStatusAccepted {
			return false
		}
		req.Status = model.RequestStatusCancelled
		req.CancellationReason = reason
		return true
	})
}

func (s *MemoryRequestStore) update(id string, apply func(*model.CollectionRequest) bool) (*model.CollectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok || !apply(req) {
		return nil, nil
	}
	req.UpdatedAt = time.Now()
	cp := *req
	return &cp, nil
}

type MemoryScheduleStore struct {
	mu        sync.Mutex
	schedules map[string]*model.CollectionSchedule
}

func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{schedules: make(map[string]*model.CollectionSchedule)}
}

func (s *MemoryScheduleStore) Insert(_ context.Context, sched *model.CollectionSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched.ID = bson.NewObjectID()
	sched.CreatedAt = time.Now()
	sched.UpdatedAt = sched.CreatedAt
	if sched.Stops == nil {
		sched.Stops = []model.ScheduleStop{}
	}
	cp := *sched
	s.schedules[sched.ID.Hex()] = &cp
	return nil
}

func (s *MemoryScheduleStore) FindByID(_ context.Context, id string) (*model.CollectionSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sched, ok := s.schedules[id]; ok {
		cp := *sched
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryScheduleStore) ConfirmByCollector(_ context.Context, id, collectorID string, at time.Time) (*model.CollectionSchedule, error) {
	return s.update(id, collectorID, func(sched *model.CollectionSchedule) {
		sched.ConfirmedByCollector = true
		ts := at
		sched.ConfirmedAt = &ts
	})
}

func (s *MemoryScheduleStore) ReassignAfterDecline(_ context.Context, id, decliningID, newID, reason string) (*model.CollectionSchedule, error) {
	return s.update(id, decliningID, func(sched *model.CollectionSchedule) {
		sched.AssignedCollectorID = newID
		sched.Status = model.ScheduleStatusActive
		sched.ConfirmedByCollector = false
		sched.ConfirmedAt = nil
		sched.DeclineReason = reason
	})
}

func (s *MemoryScheduleStore) UnassignAfterDecline(_ context.Context, id, decliningID, reason string) (*model.CollectionSchedule, error) {
	return s.update(id, decliningID, func(sched *model.CollectionSchedule) {
		sched.AssignedCollectorID = ""
		sched.Status = model.ScheduleStatusDraft
		sched.ConfirmedByCollector = false
		sched.ConfirmedAt = nil
		sched.DeclineReason = reason
	})
}

func (s *MemoryScheduleStore) update(id, collectorID string, apply func(*model.CollectionSchedule)) (*model.CollectionSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[id]
	if !ok || sched.AssignedCollectorID != collectorID || !sched.Status.CollectorActionable() {
		return nil, nil
	}
	apply(sched)
	sched.UpdatedAt = time.Now()
	cp := *sched
	return &cp, nil
}

type MemoryAttendanceStore struct {
	mu      sync.Mutex
	records []*model.CollectorAttendance
}

func NewMemoryAttendanceStore() *MemoryAttendanceStore {
	return &MemoryAttendanceStore{}
}

func (s *MemoryAttendanceStore) TodayRecord(_ context.Context, collectorID, date string) (*model.CollectorAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.CollectorID == collectorID && rec.Date == date {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryAttendanceStore) ClockIn(_ context.Context, rec *model.CollectorAttendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.CollectorID == rec.CollectorID && existing.Date == rec.Date {
			return fmt.Errorf("duplicate attendance for %s on %s", rec.CollectorID, rec.Date)
		}
	}
	rec.ID = bson.NewObjectID()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	cp := *rec
	s.records = append(s.records, &cp)
	return nil
}

func (s *MemoryAttendanceStore) ClockOut(_ context.Context, collectorID, date string, at time.Time) (*model.CollectorAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.CollectorID == collectorID && rec.Date == date && rec.LogoutTime == nil {
			ts := at
			rec.LogoutTime = &ts
			rec.UpdatedAt = at
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryAttendanceStore) OnDuty(_ context.Context, date, exclude string) ([]*model.CollectorAttendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []*model.CollectorAttendance
	for _, rec := range s.records {
		if rec.Date != date || rec.LogoutTime != nil || rec.CollectorID == exclude {
			continue
		}
		cp := *rec
		results = append(results, &cp)
	}
	return results, nil
}

type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	order    []string
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]*model.Profile)}
}

func (s *MemoryProfileStore) Put(p *model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	cp := *p
	s.profiles[p.ID] = &cp
}

func (s *MemoryProfileStore) GetProfile(_ context.Context, id string) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryProfileStore) ListByRoles(_ context.Context, roles ...model.Role) ([]*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var results []*model.Profile
	for _, id := range s.order {
		p := s.profiles[id]
		if p.Status != model.ProfileStatusActive {
			continue
		}
		for _, role := range roles {
			if p.Role == role {
				cp := *p
				results = append(results, &cp)
				break
			}
		}
	}
	return results, nil
}

type MemoryNotificationStore struct {
	mu   sync.Mutex
	rows map[string]*model.Notification
	keys []string
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{rows: make(map[string]*model.Notification)}
}

func (s *MemoryNotificationStore) Upsert(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[n.DedupeKey]; ok {
		return nil
	}
	cp := *n
	cp.ID = bson.NewObjectID()
	s.rows[n.DedupeKey] = &cp
	s.keys = append(s.keys, n.DedupeKey)
	return nil
}

// All returns every stored notification in insertion order.
func (s *MemoryNotificationStore) All() []*model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]*model.Notification, 0, len(s.keys))
	for _, key := range s.keys {
		cp := *s.rows[key]
		results = append(results, &cp)
	}
	return results
}

// ForUser returns the notifications addressed to userID in insertion order.
func (s *MemoryNotificationStore) ForUser(userID string) []*model.Notification {
	var results []*model.Notification
	for _, n := range s.All() {
		if n.UserID == userID {
			results = append(results, n)
		}
	}
	return results
}
