package memory

import (
	"context"
	"sync"

	"github.com/aretw0/stepper/pkg/domain"
)

// Cache implements ports.TraceCache in memory.
// Safe for concurrent use. Traces are immutable, so entries are shared without copying.
type Cache struct {
	data map[string]domain.Trace
	mu   sync.RWMutex
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]domain.Trace),
	}
}

// Get retrieves a trace from memory.
func (c *Cache) Get(ctx context.Context, key string) (domain.Trace, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.data[key]
	if !ok {
		return domain.Trace{}, domain.ErrCacheMiss
	}
	return t, nil
}

// Put stores a trace in memory.
func (c *Cache) Put(ctx context.Context, key string, t domain.Trace) error {
	if t.IsZero() {
		return domain.ErrEmptyTrace
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = t
	return nil
}

// Delete removes a trace.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len returns the number of cached traces.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
