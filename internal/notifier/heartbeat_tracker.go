package notifier

import (
	"sync"
	"time"

	"github.com/aleister1102/monsterwatch/internal/models"
)

// HeartbeatTracker holds the per-target liveness state. Updates come from
// the dispatcher, snapshots are taken by the emitter and the status server.
type HeartbeatTracker struct {
	mu    sync.RWMutex
	state models.Heartbeat
	clock func() time.Time
}

// NewHeartbeatTracker creates a tracker with one empty item per url, in order.
// A nil clock uses time.Now.
func NewHeartbeatTracker(urls []string, clock func() time.Time) *HeartbeatTracker {
	if clock == nil {
		clock = time.Now
	}

	items := make([]models.HeartbeatItem, 0, len(urls))
	for _, url := range urls {
		items = append(items, models.HeartbeatItem{URL: url})
	}

	return &HeartbeatTracker{
		state: models.Heartbeat{Items: items},
		clock: clock,
	}
}

// Update records an outcome for url. Every kind sets LastUpdate; change and
// failure also set LastChange or LastFailure to the same timestamp.
// Unknown urls get a new item.
func (t *HeartbeatTracker) Update(url string, kind models.UpdateKind) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock().Unix()
	item := t.itemLocked(url)
	item.LastUpdate = &now

	switch kind {
	case models.UpdateChange:
		changed := now
		item.LastChange = &changed
	case models.UpdateFailure:
		failed := now
		item.LastFailure = &failed
	}

	t.state.Dirty = true
}

func (t *HeartbeatTracker) itemLocked(url string) *models.HeartbeatItem {
	for i := range t.state.Items {
		if t.state.Items[i].URL == url {
			return &t.state.Items[i]
		}
	}
	t.state.Items = append(t.state.Items, models.HeartbeatItem{URL: url})
	return &t.state.Items[len(t.state.Items)-1]
}

// Snapshot returns a consistent deep copy of the current state
func (t *HeartbeatTracker) Snapshot() models.Heartbeat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Clone()
}

// Collect returns a snapshot and clears the dirty flag in the same critical section
func (t *HeartbeatTracker) Collect() models.Heartbeat {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot := t.state.Clone()
	t.state.Dirty = false
	return snapshot
}
