package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-logger/glog"

	"kolekta/internal/identity"
	"kolekta/internal/model"
)

// RequestService is the collection-request lifecycle state machine.
// Forward path: pending → accepted → payment_confirmed → assigned →
// accepted_by_collector → en_route → at_location → in_progress → completed.
// Side exits: rejected (staff), cancelled (requester),
// declined_by_collector (collector).
type RequestService struct {
	requests RequestStore
	profiles ProfileStore
	notifier Notifier
	log      glog.Logger
	now      func() time.Time
}

func NewRequestService(requests RequestStore, profiles ProfileStore, notifier Notifier, log glog.Logger) *RequestService {
	return &RequestService{
		requests: requests,
		profiles: profiles,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// CreateRequestInput carries the requester-supplied fields for a new request.
type CreateRequestInput struct {
	RequesterName     string
	RequesterPhone    string
	Barangay          string
	Address           string
	Priority          model.Priority
	PreferredDate     string
	PreferredTimeSlot string
	Instructions      string
}

// Create opens a new request in pending and stamps a sequential
// REQ-YYYYMMDD-XXXX number.
func (s *RequestService) Create(ctx context.Context, actor identity.Actor, in CreateRequestInput) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleClient, model.RoleStaff, model.RoleAdmin) {
		return nil, ErrNotFoundOrUnauthorized
	}
	if strings.TrimSpace(in.Barangay) == "" || strings.TrimSpace(in.Address) == "" {
		return nil, validationErr("barangay and address are required")
	}
	if !model.ValidPriority(in.Priority) {
		return nil, validationErr(fmt.Sprintf("unknown priority %q", in.Priority))
	}
	if in.PreferredDate != "" {
		if _, err := time.Parse(time.DateOnly, in.PreferredDate); err != nil {
			return nil, validationErr(fmt.Sprintf("invalid preferred date %q", in.PreferredDate))
		}
	}

	now := s.now()
	date := now.Format(time.DateOnly)
	seq, err := s.requests.NextSequence(ctx, date)
	if err != nil {
		return nil, persistenceErr(err)
	}

	req := &model.CollectionRequest{
		RequestNumber:     fmt.Sprintf("REQ-%s-%04d", now.Format("20060102"), seq),
		RequesterID:       actor.ID,
		RequesterName:     in.RequesterName,
		RequesterPhone:    in.RequesterPhone,
		Barangay:          in.Barangay,
		Address:           in.Address,
		Priority:          in.Priority,
		PreferredDate:     in.PreferredDate,
		PreferredTimeSlot: in.PreferredTimeSlot,
		Instructions:      in.Instructions,
		Status:            model.RequestStatusPending,
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		return nil, persistenceErr(err)
	}
	s.log.Info("request %s created by %s", req.RequestNumber, actor.ID)
	return req, nil
}

// Approve moves a pending request to accepted. Staff only.
func (s *RequestService) Approve(ctx context.Context, actor identity.Actor, requestID string) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleStaff, model.RoleAdmin) {
		return nil, ErrNotFoundOrUnauthorized
	}
	req, err := s.requests.Approve(ctx, requestID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}
	return req, nil
}

// ConfirmPayment moves an accepted request to payment_confirmed. Staff only.
func (s *RequestService) ConfirmPayment(ctx context.Context, actor identity.Actor, requestID string) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleStaff, model.RoleAdmin) {
		return nil, ErrNotFoundOrUnauthorized
	}
	req, err := s.requests.ConfirmPayment(ctx, requestID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}
	return req, nil
}

// Assign hands a payment-confirmed request to a collector and notifies them.
// This is the only operation that sets assigned_collector_id.
func (s *RequestService) Assign(ctx context.Context, actor identity.Actor, requestID, collectorID string) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleStaff, model.RoleAdmin) {
		return nil, ErrNotFoundOrUnauthorized
	}
	collector, err := s.profiles.GetProfile(ctx, collectorID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if collector == nil || collector.Role != model.RoleCollector || collector.Status != model.ProfileStatusActive {
		return nil, validationErr(fmt.Sprintf("%q is not an active collector", collectorID))
	}

	req, err := s.requests.AssignCollector(ctx, requestID, collectorID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	s.notifier.Notify(ctx, collectorID, model.NotifyRequestAssigned, requestData(req))
	s.log.Info("request %s assigned to collector %s", req.RequestNumber, collectorID)
	return req, nil
}

// Accept is the collector acknowledging an assigned request.
func (s *RequestService) Accept(ctx context.Context, actor identity.Actor, requestID string) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	req, err := s.requests.AcceptByCollector(ctx, requestID, actor.ID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	s.notifier.Notify(ctx, req.RequesterID, model.NotifyRequestAccepted, requestData(req))
	s.log.Info("request %s accepted by collector %s", req.RequestNumber, actor.ID)
	return req, nil
}

// Decline releases an assigned request back to the unassigned pool. Unlike
// schedules, requests are never auto-reassigned: staff and admins are
// notified to pick a replacement.
func (s *RequestService) Decline(ctx context.Context, actor identity.Actor, requestID, reason string) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	if strings.TrimSpace(reason) == "" {
		return nil, validationErr("a decline reason is required")
	}
	req, err := s.requests.DeclineByCollector(ctx, requestID, actor.ID, reason, s.now())
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	data := requestData(req)
	data["reason"] = reason
	staff, err := s.profiles.ListByRoles(ctx, model.RoleStaff, model.RoleAdmin)
	if err != nil {
		s.log.Warn("request %s declined but staff lookup failed: %v", req.RequestNumber, err)
	}
	for _, p := range staff {
		s.notifier.Notify(ctx, p.ID, model.NotifyRequestDeclined, data)
	}
	s.log.Info("request %s declined by collector %s: %s", req.RequestNumber, actor.ID, reason)
	return req, nil
}

// UpdateStatus advances a request along the fixed collector progression
// (accepted_by_collector → en_route → at_location → in_progress). Any other
// current/next pair is an invalid transition; reaching in_progress stamps
// the start time.
func (s *RequestService) UpdateStatus(ctx context.Context, actor identity.Actor, requestID string, next model.RequestStatus) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	from, ok := model.ProgressPredecessor(next)
	if !ok {
		return nil, invalidTransitionErr("", string(next))
	}

	var startedAt *time.Time
	if next == model.RequestStatusInProgress {
		ts := s.now()
		startedAt = &ts
	}

	req, err := s.requests.AdvanceByCollector(ctx, requestID, actor.ID, from, next, startedAt)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		// The guarded update matched nothing. A follow-up read only
		// classifies the failure; the update above stays the sole
		// mutation path.
		current, err := s.requests.FindAssigned(ctx, requestID, actor.ID)
		if err != nil {
			return nil, persistenceErr(err)
		}
		if current != nil {
			return nil, invalidTransitionErr(string(current.Status), string(next))
		}
		return nil, ErrNotFoundOrUnauthorized
	}

	s.notifier.Notify(ctx, req.RequesterID, model.NotifyRequestStatus, requestData(req))
	s.log.Info("request %s moved to %s by collector %s", req.RequestNumber, next, actor.ID)
	return req, nil
}

// Complete closes an in-progress request, stamping the completion time and
// storing optional notes.
func (s *RequestService) Complete(ctx context.Context, actor identity.Actor, requestID, notes string) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleCollector) {
		return nil, ErrNotFoundOrUnauthorized
	}
	req, err := s.requests.CompleteByCollector(ctx, requestID, actor.ID, notes, s.now())
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	s.notifier.Notify(ctx, req.RequesterID, model.NotifyRequestCompleted, requestData(req))
	s.log.Info("request %s completed by collector %s", req.RequestNumber, actor.ID)
	return req, nil
}

// Reject is the staff side exit from pending or accepted.
func (s *RequestService) Reject(ctx context.Context, actor identity.Actor, requestID, reason string) (*model.CollectionRequest, error) {
	if !actor.Is(model.RoleStaff, model.RoleAdmin) {
		return nil, ErrNotFoundOrUnauthorized
	}
	if strings.TrimSpace(reason) == "" {
		return nil, validationErr("a rejection reason is required")
	}
	req, err := s.requests.Reject(ctx, requestID, reason)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	data := requestData(req)
	data["reason"] = reason
	s.notifier.Notify(ctx, req.RequesterID, model.NotifyRequestRejected, data)
	return req, nil
}

// Cancel is the requester side exit from pending or accepted.
func (s *RequestService) Cancel(ctx context.Context, actor identity.Actor, requestID, reason string) (*model.CollectionRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationErr("a cancellation reason is required")
	}
	req, err := s.requests.CancelByRequester(ctx, requestID, actor.ID, reason)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}

	data := requestData(req)
	data["reason"] = reason
	staff, err := s.profiles.ListByRoles(ctx, model.RoleStaff, model.RoleAdmin)
	if err != nil {
		s.log.Warn("request %s cancelled but staff lookup failed: %v", req.RequestNumber, err)
	}
	for _, p := range staff {
		s.notifier.Notify(ctx, p.ID, model.NotifyRequestCancelled, data)
	}
	return req, nil
}

// Get returns a request by id without mutation. Collectors only see their
// own assignments; requesters their own requests.
func (s *RequestService) Get(ctx context.Context, actor identity.Actor, requestID string) (*model.CollectionRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, persistenceErr(err)
	}
	if req == nil {
		return nil, ErrNotFoundOrUnauthorized
	}
	switch {
	case actor.Is(model.RoleStaff, model.RoleAdmin):
	case actor.Is(model.RoleCollector) && req.AssignedCollectorID == actor.ID:
	case req.RequesterID == actor.ID:
	default:
		return nil, ErrNotFoundOrUnauthorized
	}
	return req, nil
}

func requestData(req *model.CollectionRequest) map[string]any {
	return map[string]any{
		"request_id":     req.ID.Hex(),
		"request_number": req.RequestNumber,
		"barangay":       req.Barangay,
		"status":         string(req.Status),
	}
}
