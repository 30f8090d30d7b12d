package simplevalues

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CacheKey identifies one memoized value within a scope.
type CacheKey struct {
	ContentID     uuid.UUID
	PropertyAlias string
	Preview       bool
	Stage         ValueStage
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s/%s/preview=%t/%s", k.ContentID, k.PropertyAlias, k.Preview, k.Stage)
}

// ScopeCache holds memoized values for one cache scope (an element
// evaluation, a snapshot, or a content item representation). Entries are
// never evicted individually; the whole cache is dropped when its scope ends.
type ScopeCache struct {
	entries sync.Map // Key: CacheKey, Value: converted value
}

// NewScopeCache creates an empty scope cache
func NewScopeCache() *ScopeCache {
	return &ScopeCache{}
}

// Load returns the value stored for key.
func (c *ScopeCache) Load(key CacheKey) (any, bool) {
	return c.entries.Load(key)
}

// LoadOrStore stores value unless key is already present, and returns the
// value that is in the cache afterwards.
func (c *ScopeCache) LoadOrStore(key CacheKey, value any) (any, bool) {
	return c.entries.LoadOrStore(key, value)
}

// Clear drops every entry.
func (c *ScopeCache) Clear() {
	c.entries.Clear()
}

// Len counts the entries.
func (c *ScopeCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

type elementScopeKey struct{}

// WithElementScope returns a context carrying a fresh cache for one
// composite evaluation (for example a render pass). Values at
// CacheLevelElementValue are reused only through the same context.
func WithElementScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, elementScopeKey{}, NewScopeCache())
}

// ElementScopeFrom returns the element cache carried by ctx, or nil.
func ElementScopeFrom(ctx context.Context) *ScopeCache {
	c, _ := ctx.Value(elementScopeKey{}).(*ScopeCache)
	return c
}
