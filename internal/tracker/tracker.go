// Package tracker is the client-side read model over the backend: it
// fetches raw segments, projects and buckets them through the query cache,
// reacts to pushed notifications, and issues the four transition commands.
// The backend stays the source of truth; a successful mutation only
// invalidates cache keys so the next read refetches.
package tracker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"supplyChainTracking/internal/cache"
	"supplyChainTracking/internal/geo"
	"supplyChainTracking/internal/lifecycle"
	"supplyChainTracking/internal/notify"
	"supplyChainTracking/internal/projection"
	"supplyChainTracking/models"
)

// Backend is the slice of the upstream client the tracker uses.
type Backend interface {
	ListSegments(ctx context.Context, status string) ([]models.RawSegment, error)
	ListIncomingSegments(ctx context.Context) ([]models.RawSegment, error)
	AcceptSegment(ctx context.Context, segmentID string) error
	TakeOverSegment(ctx context.Context, segmentID string, pos geo.Coordinate) error
	HandOverSegment(ctx context.Context, segmentID string, pos geo.Coordinate) error
	CreateShipment(ctx context.Context, req models.CreateShipmentRequest) (*models.Shipment, error)
	ListShipments(ctx context.Context) ([]models.Shipment, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DismissNotification(ctx context.Context, id string) error
}

// SnapshotStore persists last-known projections so the dashboard can serve
// stale-but-consistent data while the backend is unreachable. Optional.
type SnapshotStore interface {
	SaveSegments(ctx context.Context, actor string, views []models.SegmentView) error
	LoadSegments(ctx context.Context, actor string) ([]models.SegmentView, bool, error)
	AppendNotification(ctx context.Context, actor string, n models.Notification) error
	ListNotifications(ctx context.Context, actor string, limit int) ([]models.Notification, error)
}

// maxRecentToasts bounds the toast ring the gateway exposes.
const maxRecentToasts = 20

// Tracker owns the cached projection and the command surface for one
// gateway process (all actors share the cache; keys are actor-scoped).
type Tracker struct {
	backend Backend
	cache   *cache.Cache
	store   SnapshotStore // nil when persistence is disabled
	logger  *zap.Logger
	ttl     time.Duration

	mu        sync.Mutex
	inflight  map[string]struct{} // "<command>|<entity>" pairs currently running
	toasts    []notify.Toast
	connState notify.State
}

// New creates a tracker. store may be nil.
func New(b Backend, c *cache.Cache, store SnapshotStore, ttl time.Duration, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		backend:   b,
		cache:     c,
		store:     store,
		logger:    logger,
		ttl:       ttl,
		inflight:  map[string]struct{}{},
		connState: notify.StateDisconnected,
	}
}

// SegmentsByStage returns the actor's segments partitioned into lifecycle
// buckets, served from cache when fresh. When the backend is unreachable and
// a snapshot exists, the snapshot is served instead of the error.
func (t *Tracker) SegmentsByStage(ctx context.Context, actor string) (map[lifecycle.Stage][]models.SegmentView, error) {
	key := cache.Key(actor, "segments", "all")
	v, err := t.cache.Get(ctx, key, t.ttl, func(ctx context.Context) (interface{}, error) {
		raws, err := t.backend.ListSegments(ctx, "")
		if err != nil {
			return nil, err
		}
		views := projection.ProjectAll(raws)
		if t.store != nil {
			if serr := t.store.SaveSegments(ctx, actor, views); serr != nil {
				t.logger.Warn("snapshot save failed", zap.String("actor", actor), zap.Error(serr))
			}
		}
		return views, nil
	})
	if err != nil {
		if t.store != nil {
			views, ok, serr := t.store.LoadSegments(ctx, actor)
			if serr == nil && ok {
				t.logger.Warn("serving stale segment snapshot",
					zap.String("actor", actor), zap.Error(err))
				return lifecycle.BucketByStage(views), nil
			}
		}
		return nil, err
	}
	return lifecycle.BucketByStage(v.([]models.SegmentView)), nil
}

// IncomingSegments returns segments addressed to the actor that await
// acceptance, projected, cached under their own key.
func (t *Tracker) IncomingSegments(ctx context.Context, actor string) ([]models.SegmentView, error) {
	key := cache.Key(actor, "segments", "incoming")
	v, err := t.cache.Get(ctx, key, t.ttl, func(ctx context.Context) (interface{}, error) {
		raws, err := t.backend.ListIncomingSegments(ctx)
		if err != nil {
			return nil, err
		}
		return projection.ProjectAll(raws), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.SegmentView), nil
}

// FindSegment locates one of the actor's segments by display id.
func (t *Tracker) FindSegment(ctx context.Context, actor, segmentID string) (models.SegmentView, bool, error) {
	buckets, err := t.SegmentsByStage(ctx, actor)
	if err != nil {
		return models.SegmentView{}, false, err
	}
	for _, views := range buckets {
		for _, v := range views {
			if v.DisplayID == segmentID {
				return v, true, nil
			}
		}
	}
	return models.SegmentView{}, false, nil
}

// Shipments returns the actor's shipments, cached.
func (t *Tracker) Shipments(ctx context.Context, actor string) ([]models.Shipment, error) {
	key := cache.Key(actor, "shipments")
	v, err := t.cache.Get(ctx, key, t.ttl, func(ctx context.Context) (interface{}, error) {
		return t.backend.ListShipments(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Shipment), nil
}

// Notifications returns the actor's notification list, cached. Falls back to
// the local log when the backend is unreachable.
func (t *Tracker) Notifications(ctx context.Context, actor string) ([]models.Notification, error) {
	key := cache.Key(actor, "notifications", "list")
	v, err := t.cache.Get(ctx, key, t.ttl, func(ctx context.Context) (interface{}, error) {
		return t.backend.ListNotifications(ctx)
	})
	if err != nil {
		if t.store != nil {
			ns, serr := t.store.ListNotifications(ctx, actor, 100)
			if serr == nil && len(ns) > 0 {
				return ns, nil
			}
		}
		return nil, err
	}
	return v.([]models.Notification), nil
}

// Unread returns the cached unread counter, fetching when cold.
func (t *Tracker) Unread(ctx context.Context, actor string) (int, error) {
	key := cache.Key(actor, "notifications", "unread")
	v, err := t.cache.Get(ctx, key, t.ttl, func(ctx context.Context) (interface{}, error) {
		return t.backend.UnreadCount(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// MarkRead forwards a markAsRead and invalidates the notification keys.
func (t *Tracker) MarkRead(ctx context.Context, actor, id string) error {
	if err := t.backend.MarkNotificationRead(ctx, id); err != nil {
		return commandError("mark notification read", err)
	}
	t.cache.Invalidate(cache.Key(actor, "notifications"))
	return nil
}

// Dismiss forwards a dismiss and invalidates the notification keys.
func (t *Tracker) Dismiss(ctx context.Context, actor, id string) error {
	if err := t.backend.DismissNotification(ctx, id); err != nil {
		return commandError("dismiss notification", err)
	}
	t.cache.Invalidate(cache.Key(actor, "notifications"))
	return nil
}

// HandleNotification is wired to the realtime channel: records a toast,
// appends to the local log, and invalidates the cached projection so the
// next read refetches.
func (t *Tracker) HandleNotification(actor string, n models.Notification) {
	toast := notify.ToastFor(n)
	t.mu.Lock()
	t.toasts = append(t.toasts, toast)
	if len(t.toasts) > maxRecentToasts {
		t.toasts = t.toasts[len(t.toasts)-maxRecentToasts:]
	}
	t.mu.Unlock()

	if t.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := t.store.AppendNotification(ctx, actor, n); err != nil {
			t.logger.Warn("notification log append failed", zap.Error(err))
		}
	}

	t.cache.Invalidate(cache.Key(actor, "notifications"))
	t.cache.Invalidate(cache.Key(actor, "segments"))
	t.logger.Info("notification received",
		zap.String("type", n.Type),
		zap.String("severity", string(n.Severity)),
		zap.String("segmentId", n.SegmentID))
}

// BroadcastNotification handles a push from the process-wide upstream
// channel, which is authenticated as the gateway rather than as one dashboard
// principal. The toast ring is shared; every actor's cached queries are
// flushed so the next read refetches.
func (t *Tracker) BroadcastNotification(n models.Notification) {
	toast := notify.ToastFor(n)
	t.mu.Lock()
	t.toasts = append(t.toasts, toast)
	if len(t.toasts) > maxRecentToasts {
		t.toasts = t.toasts[len(t.toasts)-maxRecentToasts:]
	}
	t.mu.Unlock()

	t.cache.Invalidate("")
	t.logger.Info("notification broadcast",
		zap.String("type", n.Type),
		zap.String("severity", string(n.Severity)))
}

// HandleUnreadCount overwrites the cached unread counter without a refetch.
func (t *Tracker) HandleUnreadCount(actor string, count int) {
	t.cache.Set(cache.Key(actor, "notifications", "unread"), count, t.ttl)
}

// BroadcastUnreadCount reacts to a process-wide UNREAD_COUNT frame. Counters
// are cached per actor and the frame carries no addressee, so the pushed
// value cannot be written to one actor's key; cached queries are dropped
// wholesale and the next read refetches. HandleUnreadCount does the in-place
// overwrite for callers that do know the addressee.
func (t *Tracker) BroadcastUnreadCount(count int) {
	t.cache.Invalidate("")
	t.logger.Debug("unread count pushed", zap.Int("count", count))
}

// SetConnState records the realtime channel state for the status endpoint.
func (t *Tracker) SetConnState(s notify.State) {
	t.mu.Lock()
	t.connState = s
	t.mu.Unlock()
}

// ConnState reports the realtime channel state; anything other than
// CONNECTED means displayed data may be stale.
func (t *Tracker) ConnState() notify.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connState
}

// RecentToasts returns the newest toasts, most recent last.
func (t *Tracker) RecentToasts() []notify.Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]notify.Toast, len(t.toasts))
	copy(out, t.toasts)
	return out
}
