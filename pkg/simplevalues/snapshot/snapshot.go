// Package snapshot provides point-in-time read views over an entity source.
//
// A Snapshot pins every lookup it serves, so repeated lookups within its
// lifetime return identical results even when the underlying source changes.
// It also owns the cache for values converted at CacheLevelContentSnapshot.
// The Manager hands out the current snapshot and replaces it on publish.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-values/pkg/simplevalues"
)

// EntitySource is the read side of the entity store a snapshot is taken over.
type EntitySource interface {
	// GetEntity returns the entity, honoring preview, or simplevalues.ErrEntityNotFound
	GetEntity(ctx context.Context, key uuid.UUID, preview bool) (*simplevalues.Entity, error)
}

type lookupKey struct {
	key     uuid.UUID
	preview bool
}

type lookup struct {
	entity *simplevalues.Entity
	err    error
}

// Snapshot implements simplevalues.Snapshot over an EntitySource.
type Snapshot struct {
	id        uuid.UUID
	createdAt time.Time
	source    EntitySource
	cache     *simplevalues.ScopeCache

	mu      sync.Mutex
	lookups map[lookupKey]lookup
}

// New takes a snapshot over source.
func New(source EntitySource) *Snapshot {
	return &Snapshot{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		source:    source,
		cache:     simplevalues.NewScopeCache(),
		lookups:   make(map[lookupKey]lookup),
	}
}

func (s *Snapshot) ID() uuid.UUID {
	return s.id
}

// CreatedAt returns when the snapshot was taken
func (s *Snapshot) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Snapshot) Cache() *simplevalues.ScopeCache {
	return s.cache
}

// GetEntity resolves key through the source and pins the answer. Misses are
// pinned as well; transient source errors are returned without pinning.
func (s *Snapshot) GetEntity(ctx context.Context, key uuid.UUID, preview bool) (*simplevalues.Entity, error) {
	k := lookupKey{key: key, preview: preview}

	s.mu.Lock()
	l, ok := s.lookups[k]
	s.mu.Unlock()
	if ok {
		return l.entity, l.err
	}

	entity, err := s.source.GetEntity(ctx, key, preview)
	if err != nil && !errors.Is(err, simplevalues.ErrEntityNotFound) {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.lookups[k]; ok {
		return existing.entity, existing.err
	}
	s.lookups[k] = lookup{entity: entity, err: err}
	return entity, err
}
