package annotation

import (
	"context"
	"net/http"
	"sync"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestCacheKey contextKey = "request_cache"

// RequestCache holds data computed once per HTTP request
type RequestCache struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

func NewRequestCache() *RequestCache {
	return &RequestCache{}
}

// Snapshot returns the cached session snapshot, taking it on first use
func (rc *RequestCache) Snapshot(s *Session) *Snapshot {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.snapshot == nil {
		rc.snapshot = s.Snapshot()
	}
	return rc.snapshot
}

// Invalidate drops the cached snapshot after a mutation
func (rc *RequestCache) Invalidate() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.snapshot = nil
}

// WithRequestCache adds a request cache to the context
func WithRequestCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestCacheKey, NewRequestCache())
}

// GetRequestCache retrieves the request cache from context
func GetRequestCache(ctx context.Context) *RequestCache {
	if cache, ok := ctx.Value(requestCacheKey).(*RequestCache); ok {
		return cache
	}
	return nil
}

// snapshotFor returns the request's cached snapshot, or a fresh one outside the middleware
func snapshotFor(r *http.Request, s *Session) *Snapshot {
	if cache := GetRequestCache(r.Context()); cache != nil {
		return cache.Snapshot(s)
	}
	return s.Snapshot()
}

// requestCacheMiddleware adds a request cache to the context for each request
func requestCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestCache(r.Context())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
