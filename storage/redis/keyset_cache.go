package redisstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	jwkskit "github.com/open-rails/trustkit/jwks"
)

// KeySetCache is a Redis-backed jwkskit.Store for deployments where
// multiple verifier replicas should share one key-set cache. Redis only
// bounds retention; the resolver still decides freshness from FetchedAt.
type KeySetCache struct {
	rdb       *redis.Client
	keyNS     string
	retention time.Duration
}

// NewKeySetCache creates a Redis-backed key-set cache. If keyPrefix is
// empty, "trustkit:jwks:" is used; if retention <= 0, 30 minutes.
func NewKeySetCache(rdb *redis.Client, keyPrefix string, retention time.Duration) *KeySetCache {
	if keyPrefix == "" {
		keyPrefix = "trustkit:jwks:"
	}
	if retention <= 0 {
		retention = 30 * time.Minute
	}
	return &KeySetCache{rdb: rdb, keyNS: keyPrefix, retention: retention}
}

func (c *KeySetCache) key(uri string) string { return c.keyNS + uri }

func (c *KeySetCache) Get(ctx context.Context, uri string) (jwkskit.Entry, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(uri)).Bytes()
	if err == redis.Nil {
		return jwkskit.Entry{}, false, nil
	}
	if err != nil {
		return jwkskit.Entry{}, false, err
	}
	var e jwkskit.Entry
	if err := json.Unmarshal(val, &e); err != nil {
		return jwkskit.Entry{}, false, err
	}
	return e, true, nil
}

func (c *KeySetCache) Put(ctx context.Context, uri string, e jwkskit.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(uri), b, c.retention).Err()
}

func (c *KeySetCache) Del(ctx context.Context, uri string) error {
	return c.rdb.Del(ctx, c.key(uri)).Err()
}

func (c *KeySetCache) Keys(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.keyNS+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, c.keyNS))
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func (c *KeySetCache) Clear(ctx context.Context) error {
	keys, err := c.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := c.rdb.Del(ctx, c.key(k)).Err(); err != nil {
			return err
		}
	}
	return nil
}
