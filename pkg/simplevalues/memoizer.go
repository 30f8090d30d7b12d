package simplevalues

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// memoizer runs the two conversion stages at most once per key and scope.
type memoizer struct {
	group singleflight.Group
}

// conversionRequest is one read of one property of one content item.
type conversionRequest struct {
	item       *contentItem
	descriptor *PropertyDescriptor
	converter  Converter
	snapshot   Snapshot
	preview    bool
	reporter   Reporter
}

func (r *conversionRequest) key(stage ValueStage) CacheKey {
	return CacheKey{
		ContentID:     r.item.record.ID,
		PropertyAlias: r.descriptor.Alias,
		Preview:       r.preview,
		Stage:         stage,
	}
}

// scope returns the cache backing a level, or nil when the level does not
// cache in the current context.
func (r *conversionRequest) scope(ctx context.Context, level CacheLevel) *ScopeCache {
	switch level {
	case CacheLevelElementValue:
		return ElementScopeFrom(ctx)
	case CacheLevelContentSnapshot:
		if r.snapshot == nil {
			return nil
		}
		return r.snapshot.Cache()
	case CacheLevelContent:
		return r.item.cache
	default:
		return nil
	}
}

func (m *memoizer) object(ctx context.Context, req *conversionRequest) (any, error) {
	ctx = ContextWithReporter(ctx, req.reporter)
	level := req.converter.CacheLevel(req.descriptor)
	return m.memo(ctx, req.scope(ctx, level), req.key(ValueStageObject), func(ctx context.Context) (any, error) {
		inter, err := m.intermediate(ctx, req, level)
		if err != nil {
			return nil, err
		}
		return req.converter.ConvertToObject(ctx, &Conversion{
			Owner:      req.item.record,
			Descriptor: req.descriptor,
			Snapshot:   req.snapshot,
			Preview:    req.preview,
		}, inter)
	})
}

// intermediate is cached on its own only when its level differs from the
// object level; otherwise the object entry already covers it. The raw value
// reaches the converter unchanged unless the converter itself rules it absent.
func (m *memoizer) intermediate(ctx context.Context, req *conversionRequest, objectLevel CacheLevel) (any, error) {
	compute := func(ctx context.Context) (any, error) {
		raw, err := req.item.rawValue(ctx, req.descriptor.Alias)
		if err != nil {
			return nil, err
		}
		if v := req.converter.IsValue(raw, ValueStageSource); v.Decided() && !v.Bool() {
			raw = nil
		}
		return req.converter.ConvertToIntermediate(ctx, req.descriptor, raw, req.preview)
	}

	level := objectLevel
	if p, ok := req.converter.(IntermediateCacheLevelProvider); ok {
		level = p.IntermediateCacheLevel(req.descriptor)
	}
	if level == objectLevel {
		return compute(ctx)
	}
	return m.memo(ctx, req.scope(ctx, level), req.key(ValueStageIntermediate), compute)
}

// memo returns the cached value for key or computes and publishes it.
// Concurrent misses on the same scope and key share one computation; the
// value becomes visible to other readers only once fully built. The shared
// computation keeps the caller's context values but not its cancellation.
func (m *memoizer) memo(ctx context.Context, cache *ScopeCache, key CacheKey, compute func(context.Context) (any, error)) (any, error) {
	if cache == nil {
		return compute(ctx)
	}
	if v, ok := cache.Load(key); ok {
		return v, nil
	}

	v, err, _ := m.group.Do(fmt.Sprintf("%p|%s", cache, key), func() (any, error) {
		if v, ok := cache.Load(key); ok {
			return v, nil
		}
		v, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		v, _ = cache.LoadOrStore(key, v)
		return v, nil
	})
	return v, err
}
