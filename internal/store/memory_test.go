package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolekta/internal/model"
)

func TestMemoryRequestStore_GuardedDeclineIsAtomic(t *testing.T) {
	s := NewMemoryRequestStore()
	ctx := context.Background()

	req := &model.CollectionRequest{
		RequestNumber:       "REQ-20250602-0001",
		RequesterID:         "client-1",
		Status:              model.RequestStatusAssigned,
		AssignedCollectorID: "collector-1",
	}
	require.NoError(t, s.Insert(ctx, req))
	id := req.ID.Hex()

	// two concurrent declines: exactly one passes the guard
	var wg sync.WaitGroup
	results := make([]*model.CollectionRequest, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = s.DeclineByCollector(ctx, id, "collector-1", "breakdown", time.Now())
		}(i)
	}
	wg.Wait()

	won := 0
	for _, res := range results {
		if res != nil {
			won++
		}
	}
	assert.Equal(t, 1, won)

	stored, _ := s.FindByID(ctx, id)
	assert.Equal(t, 1, stored.ReassignmentCount)
	assert.Empty(t, stored.AssignedCollectorID)
}

func TestMemoryRequestStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryRequestStore()
	ctx := context.Background()

	req := &model.CollectionRequest{Status: model.RequestStatusPending, RequesterID: "client-1"}
	require.NoError(t, s.Insert(ctx, req))

	got, _ := s.FindByID(ctx, req.ID.Hex())
	got.Status = model.RequestStatusCompleted

	again, _ := s.FindByID(ctx, req.ID.Hex())
	assert.Equal(t, model.RequestStatusPending, again.Status)
}

func TestMemoryAttendanceStore_OnDutyOrderAndExclusion(t *testing.T) {
	s := NewMemoryAttendanceStore()
	ctx := context.Background()
	date := "2025-06-02"

	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, s.ClockIn(ctx, &model.CollectorAttendance{
			CollectorID: id,
			Date:        date,
			LoginTime:   time.Now(),
		}))
	}
	_, err := s.ClockOut(ctx, "c2", date, time.Now())
	require.NoError(t, err)

	onDuty, err := s.OnDuty(ctx, date, "c1")
	require.NoError(t, err)
	require.Len(t, onDuty, 1)
	assert.Equal(t, "c3", onDuty[0].CollectorID)

	onDuty, err = s.OnDuty(ctx, date, "")
	require.NoError(t, err)
	require.Len(t, onDuty, 2)
	assert.Equal(t, "c1", onDuty[0].CollectorID)
	assert.Equal(t, "c3", onDuty[1].CollectorID)
}

func TestMemoryAttendanceStore_DuplicateClockIn(t *testing.T) {
	s := NewMemoryAttendanceStore()
	ctx := context.Background()

	rec := &model.CollectorAttendance{CollectorID: "c1", Date: "2025-06-02", LoginTime: time.Now()}
	require.NoError(t, s.ClockIn(ctx, rec))
	assert.Error(t, s.ClockIn(ctx, &model.CollectorAttendance{CollectorID: "c1", Date: "2025-06-02"}))
}

func TestMemoryNotificationStore_DedupeKey(t *testing.T) {
	s := NewMemoryNotificationStore()
	ctx := context.Background()

	n := &model.Notification{DedupeKey: "k1", UserID: "u1", Type: model.NotifyRequestAssigned}
	require.NoError(t, s.Upsert(ctx, n))
	require.NoError(t, s.Upsert(ctx, n))
	assert.Len(t, s.All(), 1)

	other := &model.Notification{DedupeKey: "k2", UserID: "u1", Type: model.NotifyRequestAssigned}
	require.NoError(t, s.Upsert(ctx, other))
	assert.Len(t, s.All(), 2)
	assert.Len(t, s.ForUser("u1"), 2)
	assert.Empty(t, s.ForUser("u2"))
}

func TestMemoryProfileStore_ListByRoles(t *testing.T) {
	s := NewMemoryProfileStore()
	s.Put(&model.Profile{ID: "staff-1", Role: model.RoleStaff, Status: model.ProfileStatusActive})
	s.Put(&model.Profile{ID: "admin-1", Role: model.RoleAdmin, Status: model.ProfileStatusActive})
	s.Put(&model.Profile{ID: "staff-2", Role: model.RoleStaff, Status: model.ProfileStatusSuspended})
	s.Put(&model.Profile{ID: "collector-1", Role: model.RoleCollector, Status: model.ProfileStatusActive})

	got, err := s.ListByRoles(context.Background(), model.RoleStaff, model.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "staff-1", got[0].ID)
	assert.Equal(t, "admin-1", got[1].ID)
}
