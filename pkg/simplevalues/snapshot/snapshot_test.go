package snapshot_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
)

type mapSource struct {
	mu       sync.Mutex
	entities map[uuid.UUID]*simplevalues.Entity
	calls    int
	err      error
}

func (m *mapSource) GetEntity(ctx context.Context, key uuid.UUID, preview bool) (*simplevalues.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.entities[key]
	if !ok || (!preview && !e.Published) {
		return nil, simplevalues.ErrEntityNotFound
	}
	c := *e
	return &c, nil
}

func TestSnapshot_PinsLookups(t *testing.T) {
	key := uuid.New()
	source := &mapSource{entities: map[uuid.UUID]*simplevalues.Entity{
		key: {Key: key, Name: "first", Published: true},
	}}
	snap := snapshot.New(source)
	ctx := context.Background()

	e1, err := snap.GetEntity(ctx, key, false)
	require.NoError(t, err)

	source.mu.Lock()
	source.entities[key] = &simplevalues.Entity{Key: key, Name: "second", Published: true}
	source.mu.Unlock()

	e2, err := snap.GetEntity(ctx, key, false)
	require.NoError(t, err)
	assert.Same(t, e1, e2)
	assert.Equal(t, "first", e2.Name)
	assert.Equal(t, 1, source.calls)

	// A new snapshot sees the change
	e3, err := snapshot.New(source).GetEntity(ctx, key, false)
	require.NoError(t, err)
	assert.Equal(t, "second", e3.Name)
}

func TestSnapshot_PreviewIsSeparate(t *testing.T) {
	key := uuid.New()
	source := &mapSource{entities: map[uuid.UUID]*simplevalues.Entity{
		key: {Key: key, Name: "draft", Published: false},
	}}
	snap := snapshot.New(source)
	ctx := context.Background()

	_, err := snap.GetEntity(ctx, key, false)
	assert.ErrorIs(t, err, simplevalues.ErrEntityNotFound)

	e, err := snap.GetEntity(ctx, key, true)
	require.NoError(t, err)
	assert.Equal(t, "draft", e.Name)

	// The miss is pinned too
	_, err = snap.GetEntity(ctx, key, false)
	assert.ErrorIs(t, err, simplevalues.ErrEntityNotFound)
	assert.Equal(t, 2, source.calls)
}

func TestSnapshot_TransientErrorsAreNotPinned(t *testing.T) {
	key := uuid.New()
	source := &mapSource{
		entities: map[uuid.UUID]*simplevalues.Entity{key: {Key: key, Published: true}},
		err:      errors.New("connection reset"),
	}
	snap := snapshot.New(source)
	ctx := context.Background()

	_, err := snap.GetEntity(ctx, key, false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, simplevalues.ErrEntityNotFound)

	source.mu.Lock()
	source.err = nil
	source.mu.Unlock()

	e, err := snap.GetEntity(ctx, key, false)
	require.NoError(t, err)
	assert.Equal(t, key, e.Key)
}

func TestManager_Advance(t *testing.T) {
	m := snapshot.NewManager(&mapSource{}, nil)

	first := m.Current()
	first.Cache().LoadOrStore(simplevalues.CacheKey{PropertyAlias: "photos"}, "cached")
	assert.Equal(t, 1, first.Cache().Len())

	next := m.Advance()
	assert.Same(t, next, m.Current())
	assert.NotEqual(t, first.ID(), next.ID())
	assert.Equal(t, 0, next.Cache().Len())
	// Holders of the previous snapshot keep their cache
	assert.Equal(t, 1, first.Cache().Len())
}
