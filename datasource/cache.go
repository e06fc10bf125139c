package datasource

import "sync"

// Cache holds static datasets keyed by endpoint for its whole lifetime.
// Entries are written once, on the first successful load, and never
// invalidated. Create one per process and share it between resolvers.
//
// An endpoint only keeps an entry once it has loaded; entries for loads
// that failed are dropped when their last waiter leaves.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	mu   sync.Mutex
	data *Dataset

	// waiters is guarded by Cache.mu.
	waiters int
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

func (c *Cache) acquire(endpoint string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[endpoint]
	if !ok {
		e = &cacheEntry{}
		c.entries[endpoint] = e
	}
	e.waiters++
	return e
}

// release must be called without holding e.mu. The last waiter removes an
// entry that never loaded.
func (c *Cache) release(endpoint string, e *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.waiters--
	if e.waiters > 0 {
		return
	}
	// No other goroutine can hold e.mu once waiters reaches zero.
	e.mu.Lock()
	empty := e.data == nil
	e.mu.Unlock()
	if empty && c.entries[endpoint] == e {
		delete(c.entries, endpoint)
	}
}

// Get returns the cached dataset for endpoint, if any.
func (c *Cache) Get(endpoint string) (*Dataset, bool) {
	c.mu.Lock()
	e, ok := c.entries[endpoint]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data, e.data != nil
}

// Load returns the cached dataset for endpoint, calling load to populate it
// when absent. Concurrent callers for the same endpoint wait on the first
// load instead of repeating it; a failed load is not cached, so the next
// caller retries.
func (c *Cache) Load(endpoint string, load func() (*Dataset, error)) (*Dataset, error) {
	e := c.acquire(endpoint)
	defer c.release(endpoint, e)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.data != nil {
		return e.data, nil
	}
	data, err := load()
	if err != nil {
		return nil, err
	}
	e.data = data
	return data, nil
}

// Len reports how many endpoints are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	entries := make([]*cacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.data != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}
