package jwkskit_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"

	jwkskit "github.com/open-rails/trustkit/jwks"
	memorystore "github.com/open-rails/trustkit/storage/memory"
	tokenkit "github.com/open-rails/trustkit/token"
)

// keySetServer serves a generated JWKS document and counts fetches.
type keySetServer struct {
	*httptest.Server
	fetches atomic.Int64
	failing atomic.Bool
	delay   time.Duration
}

func newKeySetServer(t *testing.T, kid string) *keySetServer {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	key, err := jwk.FromRaw(&priv.PublicKey)
	if err != nil {
		t.Fatalf("failed to build JWK: %v", err)
	}
	_ = key.Set(jwk.KeyIDKey, kid)
	set := jwk.NewSet()
	_ = set.AddKey(key)
	doc, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("failed to marshal key set: %v", err)
	}

	s := &keySetServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		if s.failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestResolver(t *testing.T, opts ...jwkskit.ResolverOpt) *jwkskit.Resolver {
	t.Helper()
	cache := memorystore.NewKeySetCache(time.Hour)
	t.Cleanup(func() { _ = cache.Close() })
	return jwkskit.NewResolver(cache, opts...)
}

func TestResolveKeyUsesCache(t *testing.T) {
	server := newKeySetServer(t, "key-1")
	resolver := newTestResolver(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key, err := resolver.ResolveKey(ctx, server.URL, "key-1")
		if err != nil {
			t.Fatalf("ResolveKey failed: %v", err)
		}
		if _, ok := key.(*rsa.PublicKey); !ok {
			t.Fatalf("resolved key has type %T, want *rsa.PublicKey", key)
		}
	}
	if got := server.fetches.Load(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestResolveRefetchesAfterTTL(t *testing.T) {
	server := newKeySetServer(t, "key-1")
	resolver := newTestResolver(t, jwkskit.WithTTL(50*time.Millisecond))
	ctx := context.Background()

	if _, err := resolver.Resolve(ctx, server.URL); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	time.Sleep(80 * time.Millisecond)
	if _, err := resolver.Resolve(ctx, server.URL); err != nil {
		t.Fatalf("Resolve after TTL failed: %v", err)
	}
	if got := server.fetches.Load(); got != 2 {
		t.Errorf("fetch count = %d, want 2", got)
	}
}

func TestResolveCollapsesConcurrentFetches(t *testing.T) {
	server := newKeySetServer(t, "key-1")
	server.delay = 100 * time.Millisecond
	resolver := newTestResolver(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = resolver.Resolve(ctx, server.URL)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: Resolve failed: %v", i, err)
		}
	}
	if got := server.fetches.Load(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestResolveKeyRefreshesOnUnknownKid(t *testing.T) {
	server := newKeySetServer(t, "key-1")
	resolver := newTestResolver(t)
	ctx := context.Background()

	if _, err := resolver.ResolveKey(ctx, server.URL, "key-1"); err != nil {
		t.Fatalf("ResolveKey failed: %v", err)
	}

	_, err := resolver.ResolveKey(ctx, server.URL, "rotated-key")
	if !tokenkit.IsKind(err, tokenkit.KindInvalidToken) {
		t.Errorf("kind = %q, want %q", tokenkit.KindOf(err), tokenkit.KindInvalidToken)
	}
	// The miss must have forced one extra fetch past the fresh cache entry.
	if got := server.fetches.Load(); got != 2 {
		t.Errorf("fetch count = %d, want 2", got)
	}
}

func TestResolveFailsOnServerError(t *testing.T) {
	server := newKeySetServer(t, "key-1")
	server.failing.Store(true)
	resolver := newTestResolver(t)

	_, err := resolver.Resolve(context.Background(), server.URL)
	if !tokenkit.IsKind(err, tokenkit.KindKeyFetch) {
		t.Errorf("kind = %q, want %q", tokenkit.KindOf(err), tokenkit.KindKeyFetch)
	}
}

func TestResolveDoesNotServeStaleOnRefreshFailure(t *testing.T) {
	server := newKeySetServer(t, "key-1")
	resolver := newTestResolver(t, jwkskit.WithTTL(50*time.Millisecond))
	ctx := context.Background()

	if _, err := resolver.Resolve(ctx, server.URL); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	server.failing.Store(true)
	time.Sleep(80 * time.Millisecond)

	_, err := resolver.Resolve(ctx, server.URL)
	if !tokenkit.IsKind(err, tokenkit.KindKeyFetch) {
		t.Errorf("expired entry must not mask a failed refresh; kind = %q", tokenkit.KindOf(err))
	}
}

func TestResolveFailsOnUnparseableDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a key set"))
	}))
	defer server.Close()
	resolver := newTestResolver(t)

	_, err := resolver.Resolve(context.Background(), server.URL)
	if !tokenkit.IsKind(err, tokenkit.KindKeyFetch) {
		t.Errorf("kind = %q, want %q", tokenkit.KindOf(err), tokenkit.KindKeyFetch)
	}
}

func TestStatsAndClear(t *testing.T) {
	server := newKeySetServer(t, "key-1")
	resolver := newTestResolver(t)
	ctx := context.Background()

	if _, err := resolver.Resolve(ctx, server.URL); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	stats, err := resolver.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Size != 1 || len(stats.Keys) != 1 || stats.Keys[0] != server.URL {
		t.Errorf("stats = %+v, want one entry for %s", stats, server.URL)
	}

	if err := resolver.ClearCache(ctx); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}
	stats, err = resolver.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Size != 0 {
		t.Errorf("size after clear = %d, want 0", stats.Size)
	}

	// The next resolve goes back to the network.
	if _, err := resolver.Resolve(ctx, server.URL); err != nil {
		t.Fatalf("Resolve after clear failed: %v", err)
	}
	if got := server.fetches.Load(); got != 2 {
		t.Errorf("fetch count = %d, want 2", got)
	}
}
