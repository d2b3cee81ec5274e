package jwkskit

import (
	"context"
	"time"
)

// Entry is a cached key-set document. Raw holds the JSON exactly as
// fetched; FetchedAt anchors the resolver's TTL check. Entries are
// immutable once stored.
type Entry struct {
	Raw       []byte    `json:"raw"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store is the cache backing a Resolver, keyed by key-set URI. The
// resolver owns freshness: a Store may evict on its own schedule but
// must never mutate entries. Implementations live in storage/memory
// and storage/redis.
type Store interface {
	Get(ctx context.Context, uri string) (Entry, bool, error)
	Put(ctx context.Context, uri string, e Entry) error
	Del(ctx context.Context, uri string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

// CacheStats is an operational snapshot of the resolver's cache. It has
// no security semantics.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}
