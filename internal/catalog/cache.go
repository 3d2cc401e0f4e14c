package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Cached serves snapshots from memory for ttl and refreshes them through a
// single in-flight load. When a refresh fails and a previous snapshot exists,
// the previous snapshot keeps being served.
type Cached struct {
	src Source
	ttl time.Duration
	now func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	snap   Snapshot
	loaded time.Time
	have   bool
}

// NewCached wraps src. A ttl <= 0 reloads on every call.
func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{src: src, ttl: ttl, now: time.Now}
}

// Snapshot implements Source.
func (c *Cached) Snapshot(ctx context.Context) (Snapshot, error) {
	c.mu.RLock()
	if c.have && c.ttl > 0 && c.now().Sub(c.loaded) < c.ttl {
		s := c.snap
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("snapshot", func() (any, error) {
		s, err := c.src.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.snap, c.loaded, c.have = s, c.now(), true
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		c.mu.RLock()
		defer c.mu.RUnlock()
		if c.have {
			log.Warn().Err(err).Time("loaded_at", c.loaded).Msg("catalog refresh failed; serving previous snapshot")
			return c.snap, nil
		}
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Invalidate forces the next call to reload.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.loaded = time.Time{}
	c.mu.Unlock()
}
