package jwkskit

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	tokenkit "github.com/open-rails/trustkit/token"
)

const (
	// DefaultTTL is how long a fetched key set is served without refresh.
	DefaultTTL = 5 * time.Minute

	// maxDocumentSize caps a key-set response body at 1 MiB.
	maxDocumentSize = 1 << 20

	defaultFetchTimeout = 10 * time.Second
)

// Resolver fetches, caches, and serves remote key sets by URI. It is
// safe for concurrent use: cache misses for the same URI collapse into a
// single outstanding fetch, and every waiter shares that fetch's result
// or failure. A stale entry is never served when its refresh fails.
type Resolver struct {
	store  Store
	ttl    time.Duration
	client *http.Client
	log    *logrus.Logger
	group  singleflight.Group
}

// ResolverOpt configures a Resolver.
type ResolverOpt func(*Resolver)

// WithTTL overrides the cache TTL.
func WithTTL(d time.Duration) ResolverOpt {
	return func(r *Resolver) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(c *http.Client) ResolverOpt {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

// WithLogger overrides the resolver's logger.
func WithLogger(l *logrus.Logger) ResolverOpt {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver builds a Resolver on the given store. The store carries
// the cache's lifecycle; tests create and tear one down per test.
func NewResolver(store Store, opts ...ResolverOpt) *Resolver {
	r := &Resolver{
		store:  store,
		ttl:    DefaultTTL,
		client: &http.Client{Timeout: defaultFetchTimeout},
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the key set published at uri, from cache when fresh.
func (r *Resolver) Resolve(ctx context.Context, uri string) (jwk.Set, error) {
	return r.resolve(ctx, uri, false)
}

// ResolveKey returns the raw public key for kid from the key set at uri.
// An unknown kid forces one refresh before failing, so freshly rotated
// keys are picked up inside the TTL window.
func (r *Resolver) ResolveKey(ctx context.Context, uri, kid string) (any, error) {
	set, err := r.resolve(ctx, uri, false)
	if err != nil {
		return nil, err
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		set, err = r.resolve(ctx, uri, true)
		if err != nil {
			return nil, err
		}
		key, ok = set.LookupKeyID(kid)
	}
	if !ok {
		return nil, tokenkit.Errorf(tokenkit.KindInvalidToken, "key %q is not present in key set %s", kid, uri)
	}
	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, tokenkit.Errorf(tokenkit.KindKeyFetch, "key %q in key set %s is unusable", kid, uri)
	}
	return raw, nil
}

// ClearCache drops every cached key set. Administrative only.
func (r *Resolver) ClearCache(ctx context.Context) error {
	return r.store.Clear(ctx)
}

// Stats reports the cache's current size and keys. Administrative only.
func (r *Resolver) Stats(ctx context.Context) (CacheStats, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return CacheStats{}, err
	}
	return CacheStats{Size: len(keys), Keys: keys}, nil
}

func (r *Resolver) resolve(ctx context.Context, uri string, force bool) (jwk.Set, error) {
	if !force {
		if set, ok := r.cached(ctx, uri); ok {
			return set, nil
		}
	}
	v, err, _ := r.group.Do(uri, func() (any, error) {
		// A waiter that queued behind an in-flight fetch finds the fresh
		// entry here instead of fetching again.
		if !force {
			if set, ok := r.cached(ctx, uri); ok {
				return set, nil
			}
		}
		raw, err := r.fetch(ctx, uri)
		if err != nil {
			r.log.WithField("uri", uri).WithError(err).Warn("key set fetch failed")
			return nil, err
		}
		set, err := jwk.Parse(raw)
		if err != nil {
			return nil, tokenkit.Errorf(tokenkit.KindKeyFetch, "key set document from %s is not parseable", uri)
		}
		if err := r.store.Put(ctx, uri, Entry{Raw: raw, FetchedAt: time.Now()}); err != nil {
			r.log.WithField("uri", uri).WithError(err).Warn("key set cache write failed")
		}
		r.log.WithFields(logrus.Fields{"uri": uri, "keys": set.Len()}).Debug("key set refreshed")
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(jwk.Set), nil
}

func (r *Resolver) cached(ctx context.Context, uri string) (jwk.Set, bool) {
	entry, ok, err := r.store.Get(ctx, uri)
	if err != nil || !ok {
		return nil, false
	}
	if time.Since(entry.FetchedAt) >= r.ttl {
		return nil, false
	}
	set, err := jwk.Parse(entry.Raw)
	if err != nil {
		// Corrupt entry: drop it and fall through to a fetch.
		_ = r.store.Del(ctx, uri)
		return nil, false
	}
	return set, true
}

func (r *Resolver) fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, tokenkit.WrapError(err, tokenkit.KindKeyFetch, "invalid key set URI "+uri)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, tokenkit.WrapError(err, tokenkit.KindKeyFetch, "key set request to "+uri+" failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, tokenkit.Errorf(tokenkit.KindKeyFetch, "key set endpoint %s returned status %d", uri, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, tokenkit.WrapError(err, tokenkit.KindKeyFetch, "failed to read key set response from "+uri)
	}
	return body, nil
}
