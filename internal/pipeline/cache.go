package pipeline

import (
	"context"
	"sync"

	"github.com/verte-zerg/weekcloud/internal/layout"
	"github.com/verte-zerg/weekcloud/internal/wordfreq"
)

// FrequencyCache persists term counts per normalizer fingerprint and window key.
type FrequencyCache interface {
	LoadTermCounts(ctx context.Context, fingerprint, windowKey string) ([]wordfreq.Entry, bool, error)
	SaveTermCounts(ctx context.Context, fingerprint, windowKey string, entries []wordfreq.Entry) error
}

type cacheEntry struct {
	table  *wordfreq.Table
	layout *layout.Result
}

// Cache memoizes tables and layouts in memory. Entries are never invalidated;
// keys include the dataset id so a reload starts cold.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Len returns the number of cached windows.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) table(key string) (*wordfreq.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.table, ok && e.table != nil
}

func (c *Cache) layout(key string) (layout.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.layout == nil {
		return layout.Result{}, false
	}
	return *e.layout, true
}

func (c *Cache) putTable(key string, t *wordfreq.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	e.table = t
	c.entries[key] = e
}

func (c *Cache) putLayout(key string, res layout.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	e.layout = &res
	c.entries[key] = e
}
