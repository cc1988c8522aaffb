package storage

import (
	"context"
	"sync"
	"time"

	"market-dashboard/src/models"
)

// -----------------------------------------------------------------------------

// MemoryGroupsCache keeps the group catalogue in process memory.
type MemoryGroupsCache struct {
	mu       sync.RWMutex
	groups   models.MGroupsData
	storedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

// -----------------------------------------------------------------------------

// NewMemoryGroupsCache creates an empty cache. A zero ttl never expires.
func NewMemoryGroupsCache(ttl time.Duration) *MemoryGroupsCache {
	return &MemoryGroupsCache{ttl: ttl, now: time.Now}
}

// -----------------------------------------------------------------------------

func (c *MemoryGroupsCache) Get(ctx context.Context) (models.MGroupsData, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.groups == nil {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) > c.ttl {
		return nil, false, nil
	}
	return cloneGroups(c.groups), true, nil
}

// -----------------------------------------------------------------------------

func (c *MemoryGroupsCache) Set(ctx context.Context, groups models.MGroupsData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = cloneGroups(groups)
	c.storedAt = c.now()
	return nil
}

// -----------------------------------------------------------------------------

func (c *MemoryGroupsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = nil
	return nil
}

// -----------------------------------------------------------------------------

func cloneGroups(in models.MGroupsData) models.MGroupsData {
	if in == nil {
		return models.MGroupsData{}
	}
	out := make(models.MGroupsData, len(in))
	for name, info := range in {
		out[name] = models.MGroupInfo{
			Type:    info.Type,
			Tickers: append([]string(nil), info.Tickers...),
		}
	}
	return out
}
