package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolekta/internal/identity"
	"kolekta/internal/model"
)

func TestCreateRequest_NumberFormat(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay: "San Isidro",
		Address:  "12 Mabini St",
		Priority: model.PriorityLow,
	})
	require.NoError(t, err)
	assert.Equal(t, "REQ-20250602-0001", first.RequestNumber)
	assert.Equal(t, model.RequestStatusPending, first.Status)
	assert.Equal(t, client.ID, first.RequesterID)

	second, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay: "Poblacion",
		Address:  "1 Rizal Ave",
		Priority: model.PriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, "REQ-20250602-0002", second.RequestNumber)
}

func TestCreateRequest_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		Address:  "12 Mabini St",
		Priority: model.PriorityLow,
	})
	assert.Equal(t, ErrCodeValidationFailure, ErrorCode(err))

	_, err = f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay: "San Isidro",
		Address:  "12 Mabini St",
		Priority: "critical",
	})
	assert.Equal(t, ErrCodeValidationFailure, ErrorCode(err))

	_, err = f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay:      "San Isidro",
		Address:       "12 Mabini St",
		Priority:      model.PriorityLow,
		PreferredDate: "02-06-2025",
	})
	assert.Equal(t, ErrCodeValidationFailure, ErrorCode(err))
}

func TestAcceptRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)

	got, err := f.requestSvc.Accept(ctx, collector, req.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAcceptedByCollector, got.Status)

	// requester is told their collector confirmed
	notes := f.sink.ForUser(client.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifyRequestAccepted, notes[0].Type)
}

func TestAcceptRequest_WrongCollector(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)

	_, err := f.requestSvc.Accept(ctx, sub, req.ID.Hex())
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))
	assert.Contains(t, err.Error(), "not found or not permitted")

	// no mutation
	stored, _ := f.requests.FindByID(ctx, req.ID.Hex())
	assert.Equal(t, model.RequestStatusAssigned, stored.Status)
}

func TestAcceptRequest_WrongStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)
	_, err := f.requestSvc.Accept(ctx, collector, req.ID.Hex())
	require.NoError(t, err)

	// second accept: no longer in assigned, same collapsed error
	_, err = f.requestSvc.Accept(ctx, collector, req.ID.Hex())
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))
}

func TestAcceptRequest_UnknownID(t *testing.T) {
	f := newFixture()
	_, err := f.requestSvc.Accept(context.Background(), collector, "64f000000000000000000000")
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))
}

func TestDeclineRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)

	got, err := f.requestSvc.Decline(ctx, collector, req.ID.Hex(), "vehicle breakdown")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusDeclinedByCollector, got.Status)
	assert.Empty(t, got.AssignedCollectorID)
	assert.Equal(t, 1, got.ReassignmentCount)
	assert.Equal(t, "vehicle breakdown", got.DeclineReason)
	require.NotNil(t, got.DeclinedAt)

	// requests are not auto-reassigned; staff and admin get the escalation
	require.Len(t, f.sink.ForUser(staff.ID), 1)
	require.Len(t, f.sink.ForUser(admin.ID), 1)
	assert.Equal(t, model.NotifyRequestDeclined, f.sink.ForUser(staff.ID)[0].Type)
	assert.Empty(t, f.sink.ForUser(sub.ID))
}

func TestDeclineRequest_RequiresReason(t *testing.T) {
	f := newFixture()
	req := f.assignedRequest(collector.ID)

	_, err := f.requestSvc.Decline(context.Background(), collector, req.ID.Hex(), "  ")
	assert.Equal(t, ErrCodeValidationFailure, ErrorCode(err))

	stored, _ := f.requests.FindByID(context.Background(), req.ID.Hex())
	assert.Equal(t, 0, stored.ReassignmentCount)
}

func TestUpdateStatus_Progression(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)
	id := req.ID.Hex()

	_, err := f.requestSvc.Accept(ctx, collector, id)
	require.NoError(t, err)

	got, err := f.requestSvc.UpdateStatus(ctx, collector, id, model.RequestStatusEnRoute)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusEnRoute, got.Status)
	assert.Nil(t, got.StartedAt)

	got, err = f.requestSvc.UpdateStatus(ctx, collector, id, model.RequestStatusAtLocation)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusAtLocation, got.Status)

	got, err = f.requestSvc.UpdateStatus(ctx, collector, id, model.RequestStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusInProgress, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, f.now, got.StartedAt.UTC())
}

func TestUpdateStatus_SkippedStep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)
	id := req.ID.Hex()

	_, err := f.requestSvc.Accept(ctx, collector, id)
	require.NoError(t, err)
	_, err = f.requestSvc.UpdateStatus(ctx, collector, id, model.RequestStatusEnRoute)
	require.NoError(t, err)

	// skipping at_location is an invalid transition, state untouched
	_, err = f.requestSvc.UpdateStatus(ctx, collector, id, model.RequestStatusInProgress)
	assert.Equal(t, ErrCodeInvalidTransition, ErrorCode(err))

	stored, _ := f.requests.FindByID(ctx, id)
	assert.Equal(t, model.RequestStatusEnRoute, stored.Status)
}

func TestUpdateStatus_NonReportableTarget(t *testing.T) {
	f := newFixture()
	req := f.assignedRequest(collector.ID)

	_, err := f.requestSvc.UpdateStatus(context.Background(), collector, req.ID.Hex(), model.RequestStatusCompleted)
	assert.Equal(t, ErrCodeInvalidTransition, ErrorCode(err))
}

func TestUpdateStatus_NotYours(t *testing.T) {
	f := newFixture()
	req := f.assignedRequest(collector.ID)

	_, err := f.requestSvc.UpdateStatus(context.Background(), sub, req.ID.Hex(), model.RequestStatusEnRoute)
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))
}

func TestCompleteRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)
	id := req.ID.Hex()

	_, err := f.requestSvc.Accept(ctx, collector, id)
	require.NoError(t, err)
	for _, next := range []model.RequestStatus{model.RequestStatusEnRoute, model.RequestStatusAtLocation, model.RequestStatusInProgress} {
		_, err = f.requestSvc.UpdateStatus(ctx, collector, id, next)
		require.NoError(t, err)
	}

	got, err := f.requestSvc.Complete(ctx, collector, id, "two extra sacks collected")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, "two extra sacks collected", got.CompletionNotes)

	// round-trip through the store shows the same terminal state
	stored, _ := f.requests.FindByID(ctx, id)
	assert.Equal(t, model.RequestStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, "two extra sacks collected", stored.CompletionNotes)
}

func TestCompleteRequest_NotInProgress(t *testing.T) {
	f := newFixture()
	req := f.assignedRequest(collector.ID)

	_, err := f.requestSvc.Complete(context.Background(), collector, req.ID.Hex(), "")
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))
}

func TestCancelRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay: "San Isidro",
		Address:  "12 Mabini St",
		Priority: model.PriorityLow,
	})
	require.NoError(t, err)

	got, err := f.requestSvc.Cancel(ctx, client, req.ID.Hex(), "moved house")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCancelled, got.Status)
	assert.Equal(t, "moved house", got.CancellationReason)
}

func TestCancelRequest_OnlyRequester(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay: "San Isidro",
		Address:  "12 Mabini St",
		Priority: model.PriorityLow,
	})
	require.NoError(t, err)

	other := identity.Actor{ID: "client-2", Role: model.RoleClient}
	_, err = f.requestSvc.Cancel(ctx, other, req.ID.Hex(), "not mine")
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))
}

func TestRejectRequest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay: "San Isidro",
		Address:  "12 Mabini St",
		Priority: model.PriorityLow,
	})
	require.NoError(t, err)

	_, err = f.requestSvc.Reject(ctx, staff, req.ID.Hex(), "")
	assert.Equal(t, ErrCodeValidationFailure, ErrorCode(err))

	got, err := f.requestSvc.Reject(ctx, staff, req.ID.Hex(), "outside service area")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, got.Status)
	assert.Equal(t, "outside service area", got.RejectionReason)

	notes := f.sink.ForUser(client.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotifyRequestRejected, notes[0].Type)
}

func TestAssignRequest_UnknownCollector(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.requestSvc.Create(ctx, client, CreateRequestInput{
		Barangay: "San Isidro",
		Address:  "12 Mabini St",
		Priority: model.PriorityLow,
	})
	require.NoError(t, err)
	id := req.ID.Hex()
	_, err = f.requestSvc.Approve(ctx, staff, id)
	require.NoError(t, err)
	_, err = f.requestSvc.ConfirmPayment(ctx, staff, id)
	require.NoError(t, err)

	_, err = f.requestSvc.Assign(ctx, staff, id, "nobody")
	assert.Equal(t, ErrCodeValidationFailure, ErrorCode(err))
}

func TestRequestRoleScoping(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req := f.assignedRequest(collector.ID)

	// staff cannot run collector operations
	_, err := f.requestSvc.Accept(ctx, staff, req.ID.Hex())
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))

	// collectors cannot run staff operations
	_, err = f.requestSvc.Approve(ctx, collector, req.ID.Hex())
	assert.Equal(t, ErrCodeNotFoundOrUnauthorized, ErrorCode(err))
}
