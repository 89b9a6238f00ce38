package realtime

import (
	"sync"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
)

// SnapshotCache is a client-side view of events. Each received snapshot
// replaces the previous one wholesale; nothing is merged.
type SnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]*models.Aggregate
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{snapshots: make(map[string]*models.Aggregate)}
}

// Apply stores the snapshot carried by an event-updated message and reports
// whether the cache changed.
func (c *SnapshotCache) Apply(msg Message) bool {
	if msg.Type != TypeEventUpdated || msg.Snapshot == nil {
		return false
	}
	c.Put(msg.Snapshot)
	return true
}

// Put overwrites the cached snapshot for the aggregate's event.
func (c *SnapshotCache) Put(snapshot *models.Aggregate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[snapshot.Event.ID] = snapshot
}

func (c *SnapshotCache) Get(eventID string) (*models.Aggregate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snapshots[eventID]
	return snap, ok
}

func (c *SnapshotCache) Forget(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, eventID)
}
