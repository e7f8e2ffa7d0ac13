package render

import (
	"github.com/msto63/dglrechner/pkg/core/cache"
)

// CachedRenderer memoizes another renderer by markup. Empty visuals are not
// cached, so a failed render is retried next time.
type CachedRenderer struct {
	next  Renderer
	cache *cache.Cache[Visual]
}

// NewCachedRenderer wraps next with a TTL cache
func NewCachedRenderer(next Renderer, cfg cache.Config) *CachedRenderer {
	return &CachedRenderer{next: next, cache: cache.New[Visual](cfg)}
}

// Render implements Renderer
func (r *CachedRenderer) Render(markup string) Visual {
	if v, ok := r.cache.Get(markup); ok {
		return v
	}
	v := r.next.Render(markup)
	if !v.Empty() {
		r.cache.Set(markup, v)
	}
	return v
}

// Stats exposes the cache hit statistics
func (r *CachedRenderer) Stats() (hits, misses int64, hitRate float64) {
	return r.cache.Stats()
}

// Close stops the cache cleanup goroutine
func (r *CachedRenderer) Close() {
	r.cache.Close()
}
