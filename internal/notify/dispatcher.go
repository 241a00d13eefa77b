package notify

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"kolekta/internal/i18n"
	"kolekta/internal/model"
)

// Store is the notification sink: an insert keyed by dedupe key, so a
// retried delivery lands on the same row instead of duplicating it.
type Store interface {
	Upsert(ctx context.Context, n *model.Notification) error
}

// Dispatcher writes notification rows best-effort. A failed insert never
// fails the transition that requested it; the entry is parked in a pending
// queue and retried by Flush, which the server runs on a cron schedule and
// once more at shutdown.
type Dispatcher struct {
	store Store
	log   glog.Logger
	now   func() time.Time

	mu      sync.Mutex
	pending []*model.Notification
}

func NewDispatcher(store Store, log glog.Logger) *Dispatcher {
	return &Dispatcher{store: store, log: log, now: time.Now}
}

// Notify renders the localized title/message for kind and inserts the row.
func (d *Dispatcher) Notify(ctx context.Context, userID string, kind model.NotificationType, data map[string]any) {
	n := &model.Notification{
		DedupeKey: uuid.NewString(),
		UserID:    userID,
		Type:      kind,
		Title:     i18n.T(ctx, "notify."+string(kind)+".title"),
		Message:   i18n.T(ctx, "notify."+string(kind)+".message", data),
		Payload:   data,
		CreatedAt: d.now(),
	}
	if err := d.store.Upsert(ctx, n); err != nil {
		d.log.Warn("notification %s for %s failed, queued for retry: %v", kind, userID, err)
		d.mu.Lock()
		d.pending = append(d.pending, n)
		d.mu.Unlock()
	}
}

// Flush retries every parked notification, keeping the ones that fail
// again. Returns the number delivered.
func (d *Dispatcher) Flush(ctx context.Context) int {
	d.mu.Lock()
	queued := d.pending
	d.pending = nil
	d.mu.Unlock()

	if len(queued) == 0 {
		return 0
	}

	var kept []*model.Notification
	delivered := 0
	for _, n := range queued {
		if err := d.store.Upsert(ctx, n); err != nil {
			kept = append(kept, n)
			continue
		}
		delivered++
	}

	if len(kept) > 0 {
		d.mu.Lock()
		d.pending = append(kept, d.pending...)
		d.mu.Unlock()
		d.log.Warn("notification retry: %d delivered, %d still pending", delivered, len(kept))
	} else if delivered > 0 {
		d.log.Info("notification retry: %d delivered", delivered)
	}
	return delivered
}

// PendingCount reports how many notifications await retry.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
