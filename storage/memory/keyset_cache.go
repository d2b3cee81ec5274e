package memorystore

import (
	"context"
	"sync"
	"time"

	jwkskit "github.com/open-rails/trustkit/jwks"
)

// KeySetCache is the in-memory implementation of jwkskit.Store. Entries
// are evicted after the retention period; freshness decisions stay with
// the resolver, so retention only bounds memory, it does not extend trust.
type KeySetCache struct {
	mu        sync.Mutex
	retention time.Duration
	data      map[string]jwkskit.Entry
	closed    chan struct{}
	closeOnce sync.Once
}

// NewKeySetCache creates a new in-memory key-set cache. If retention <= 0,
// a default of 30 minutes is used. Starts a background goroutine that
// removes stale entries every minute; call Close when done.
func NewKeySetCache(retention time.Duration) *KeySetCache {
	if retention <= 0 {
		retention = 30 * time.Minute
	}
	c := &KeySetCache{
		retention: retention,
		data:      make(map[string]jwkskit.Entry),
		closed:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

func (c *KeySetCache) Get(ctx context.Context, uri string) (jwkskit.Entry, bool, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[uri]
	if !ok {
		return jwkskit.Entry{}, false, nil
	}
	if time.Since(e.FetchedAt) > c.retention {
		delete(c.data, uri)
		return jwkskit.Entry{}, false, nil
	}
	return e, true, nil
}

func (c *KeySetCache) Put(ctx context.Context, uri string, e jwkskit.Entry) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[uri] = e
	return nil
}

func (c *KeySetCache) Del(ctx context.Context, uri string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, uri)
	return nil
}

func (c *KeySetCache) Keys(ctx context.Context) ([]string, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (c *KeySetCache) Clear(ctx context.Context) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]jwkskit.Entry)
	return nil
}

// cleanupLoop runs in the background and removes stale entries every minute.
func (c *KeySetCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.closed:
			return
		}
	}
}

// cleanup removes all entries past the retention period.
func (c *KeySetCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.data {
		if now.Sub(e.FetchedAt) > c.retention {
			delete(c.data, k)
		}
	}
}

// Close stops the background cleanup goroutine.
// Should be called when the cache is no longer needed.
func (c *KeySetCache) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}
