package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/goliatone/go-logger/glog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolekta/internal/model"
	"kolekta/internal/store"
)

// flakyStore fails the first failures inserts, then delegates to a real
// in-memory store.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	backing  *store.MemoryNotificationStore
}

func (s *flakyStore) Upsert(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errors.New("connection reset")
	}
	s.mu.Unlock()
	return s.backing.Upsert(ctx, n)
}

func testLogger() glog.Logger {
	return glog.NewLogger(glog.WithWriter(io.Discard))
}

func TestNotify_InsertsRenderedRow(t *testing.T) {
	sink := store.NewMemoryNotificationStore()
	d := NewDispatcher(sink, testLogger())

	d.Notify(context.Background(), "collector-2", model.NotifyScheduleReassigned, map[string]any{
		"name":       "North Route",
		"stops":      2,
		"start_date": "2025-06-02",
	})

	rows := sink.All()
	require.Len(t, rows, 1)
	assert.Equal(t, "collector-2", rows[0].UserID)
	assert.Equal(t, model.NotifyScheduleReassigned, rows[0].Type)
	assert.Equal(t, "Schedule assigned to you", rows[0].Title)
	assert.Contains(t, rows[0].Message, "North Route")
	assert.NotEmpty(t, rows[0].DedupeKey)
	assert.False(t, rows[0].IsRead)
	assert.Zero(t, d.PendingCount())
}

func TestNotify_FailureQueuesForRetry(t *testing.T) {
	backing := store.NewMemoryNotificationStore()
	flaky := &flakyStore{failures: 1, backing: backing}
	d := NewDispatcher(flaky, testLogger())

	d.Notify(context.Background(), "staff-1", model.NotifyScheduleUnassignable, map[string]any{
		"name":   "North Route",
		"reason": "vehicle breakdown",
	})

	assert.Empty(t, backing.All())
	assert.Equal(t, 1, d.PendingCount())

	delivered := d.Flush(context.Background())
	assert.Equal(t, 1, delivered)
	assert.Zero(t, d.PendingCount())
	require.Len(t, backing.All(), 1)
}

func TestFlush_KeepsRepeatedFailures(t *testing.T) {
	backing := store.NewMemoryNotificationStore()
	flaky := &flakyStore{failures: 3, backing: backing}
	d := NewDispatcher(flaky, testLogger())

	d.Notify(context.Background(), "staff-1", model.NotifyRequestDeclined, map[string]any{
		"request_number": "REQ-20250602-0001",
		"reason":         "sick",
	})
	require.Equal(t, 1, d.PendingCount())

	assert.Zero(t, d.Flush(context.Background())) // second failure
	assert.Equal(t, 1, d.PendingCount())
	assert.Zero(t, d.Flush(context.Background())) // third failure
	assert.Equal(t, 1, d.Flush(context.Background()))
	assert.Zero(t, d.PendingCount())
	require.Len(t, backing.All(), 1)
}

func TestRetry_DoesNotDuplicateOnDedupeKey(t *testing.T) {
	sink := store.NewMemoryNotificationStore()
	d := NewDispatcher(sink, testLogger())

	d.Notify(context.Background(), "client-1", model.NotifyRequestCompleted, map[string]any{
		"request_number": "REQ-20250602-0001",
	})
	row := sink.All()[0]

	// a redelivery with the same dedupe key lands on the same row
	err := sink.Upsert(context.Background(), row)
	require.NoError(t, err)
	assert.Len(t, sink.All(), 1)
}

func TestNotify_UnknownTypeFallsBackToMessageID(t *testing.T) {
	sink := store.NewMemoryNotificationStore()
	d := NewDispatcher(sink, testLogger())

	d.Notify(context.Background(), "client-1", model.NotificationType("mystery"), nil)

	rows := sink.All()
	require.Len(t, rows, 1)
	assert.Equal(t, "notify.mystery.title", rows[0].Title)
}
