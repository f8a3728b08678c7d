package travel

import (
	"context"
	"sync"
	"time"

	"github.com/kilianp07/fieldsched/core/model"
)

// Cache memoizes geocodes and drives. Implementations must be safe for
// concurrent use.
type Cache interface {
	GetDrive(ctx context.Context, key string) (Drive, bool)
	SetDrive(ctx context.Context, key string, d Drive)
	GetCoordinates(ctx context.Context, address string) (model.Coordinates, bool)
	SetCoordinates(ctx context.Context, address string, c model.Coordinates)
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// HitRate returns hits / (hits + misses).
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry struct {
	drive     Drive
	coords    model.Coordinates
	createdAt time.Time
	lastUsed  time.Time
}

// MemoryCache is an in-process TTL cache that evicts the least recently used
// entry once MaxEntries is reached. Expired entries are dropped lazily.
type MemoryCache struct {
	mu         sync.Mutex
	drives     map[string]*entry
	coords     map[string]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	stats      CacheStats
}

// NewMemoryCache creates a cache. ttl <= 0 disables expiry and
// maxEntries <= 0 disables eviction.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	return &MemoryCache{
		drives:     make(map[string]*entry),
		coords:     make(map[string]*entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryCache) GetDrive(_ context.Context, key string) (Drive, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(c.drives, key)
	if !ok {
		return Drive{}, false
	}
	return e.drive, true
}

func (c *MemoryCache) SetDrive(_ context.Context, key string, d Drive) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(c.drives, key, &entry{drive: d})
}

func (c *MemoryCache) GetCoordinates(_ context.Context, address string) (model.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(c.coords, address)
	if !ok {
		return model.Coordinates{}, false
	}
	return e.coords, true
}

func (c *MemoryCache) SetCoordinates(_ context.Context, address string, coords model.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(c.coords, address, &entry{coords: coords})
}

// Stats returns a snapshot of the counters.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.drives) + len(c.coords)
	return s
}

func (c *MemoryCache) lookup(m map[string]*entry, key string) (*entry, bool) {
	e, ok := m[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	now := c.now()
	if c.ttl > 0 && now.Sub(e.createdAt) > c.ttl {
		delete(m, key)
		c.stats.Misses++
		c.stats.Evictions++
		return nil, false
	}
	e.lastUsed = now
	c.stats.Hits++
	return e, true
}

func (c *MemoryCache) store(m map[string]*entry, key string, e *entry) {
	now := c.now()
	e.createdAt, e.lastUsed = now, now
	if _, exists := m[key]; !exists && c.maxEntries > 0 && len(c.drives)+len(c.coords) >= c.maxEntries {
		c.evictOldest()
	}
	m[key] = e
}

func (c *MemoryCache) evictOldest() {
	var (
		oldestMap map[string]*entry
		oldestKey string
		oldest    time.Time
	)
	for _, m := range []map[string]*entry{c.drives, c.coords} {
		for k, e := range m {
			if oldestMap == nil || e.lastUsed.Before(oldest) {
				oldestMap, oldestKey, oldest = m, k, e.lastUsed
			}
		}
	}
	if oldestMap != nil {
		delete(oldestMap, oldestKey)
		c.stats.Evictions++
	}
}
