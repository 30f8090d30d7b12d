package mediapicker_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/mediapicker"
	"github.com/tendant/simple-values/pkg/simplevalues/repo/memory"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
	"github.com/tendant/simple-values/pkg/simplevalues/urlstrategy"
)

// countingSource records every entity lookup that reaches the store.
type countingSource struct {
	source snapshot.EntitySource

	mu      sync.Mutex
	lookups []uuid.UUID
	err     error
}

func (c *countingSource) GetEntity(ctx context.Context, key uuid.UUID, preview bool) (*simplevalues.Entity, error) {
	c.mu.Lock()
	c.lookups = append(c.lookups, key)
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.source.GetEntity(ctx, key, preview)
}

func (c *countingSource) looked() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uuid.UUID(nil), c.lookups...)
}

// recordingReporter keeps reported anomalies for assertions.
type recordingReporter struct {
	simplevalues.NoopReporter

	mu         sync.Mutex
	unresolved []uuid.UUID
	malformed  []int
	failed     []error
}

func (r *recordingReporter) ReferenceUnresolved(ctx context.Context, d *simplevalues.PropertyDescriptor, ownerID uuid.UUID, key uuid.UUID, preview bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unresolved = append(r.unresolved, key)
}

func (r *recordingReporter) EntryMalformed(ctx context.Context, d *simplevalues.PropertyDescriptor, index int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.malformed = append(r.malformed, index)
}

func (r *recordingReporter) ConversionFailed(ctx context.Context, d *simplevalues.PropertyDescriptor, ownerID uuid.UUID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

type fixture struct {
	repo     *memory.Repository
	source   *countingSource
	reporter *recordingReporter
	svc      simplevalues.Service
	owner    uuid.UUID
}

const crops = `"crops":[{"alias":"thumb","width":100,"height":100},{"alias":"banner","width":1200,"height":400}]`

func newFixture(t *testing.T, options ...mediapicker.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()

	require.NoError(t, repo.PutPropertyDescriptor(ctx, simplevalues.NewPropertyDescriptor(
		"article", "gallery", mediapicker.EditorAlias, json.RawMessage(`{"multiple":true,`+crops+`}`))))
	require.NoError(t, repo.PutPropertyDescriptor(ctx, simplevalues.NewPropertyDescriptor(
		"article", "hero", mediapicker.EditorAlias, json.RawMessage(`{"multiple":false,"enableLocalFocalPoint":true,`+crops+`}`))))
	require.NoError(t, repo.PutPropertyDescriptor(ctx, simplevalues.NewPropertyDescriptor(
		"article", "legacy", "Custom.Unknown", nil)))

	owner := uuid.New()
	require.NoError(t, repo.PutContentItem(ctx, &simplevalues.ContentItem{ID: owner, ContentTypeAlias: "article"}))

	if len(options) == 0 {
		options = []mediapicker.Option{mediapicker.WithURLStrategy(urlstrategy.NewCDNStrategy("https://cdn.example.com"))}
	}
	registry, err := simplevalues.NewRegistry(mediapicker.NewConverter(options...))
	require.NoError(t, err)

	reporter := &recordingReporter{}
	svc, err := simplevalues.New(
		simplevalues.WithRepository(repo),
		simplevalues.WithRegistry(registry),
		simplevalues.WithReporter(reporter),
	)
	require.NoError(t, err)

	return &fixture{
		repo:     repo,
		source:   &countingSource{source: repo},
		reporter: reporter,
		svc:      svc,
		owner:    owner,
	}
}

func (f *fixture) media(t *testing.T, typeAlias string) uuid.UUID {
	t.Helper()
	key := uuid.New()
	require.NoError(t, f.repo.Publish(context.Background(), &simplevalues.Entity{
		Key:              key,
		ContentTypeAlias: typeAlias,
		Name:             typeAlias + "-" + key.String()[:8],
		FilePath:         "media/" + key.String() + ".jpg",
	}))
	return key
}

func (f *fixture) set(t *testing.T, alias string, raw any) {
	t.Helper()
	require.NoError(t, f.repo.SetRawValue(context.Background(), f.owner, alias, raw))
}

func (f *fixture) snapshot() *snapshot.Snapshot {
	return snapshot.New(f.source)
}

func refs(keys ...uuid.UUID) string {
	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, fmt.Sprintf(`{"key":"%s","mediaKey":"%s"}`, uuid.New(), k))
	}
	return "[" + strings.Join(entries, ",") + "]"
}

func TestConverter_EmptyArrayIsAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, raw := range []any{"[]", " [ ] ", []byte("[]"), nil, ""} {
		t.Run(fmt.Sprintf("%v", raw), func(t *testing.T) {
			if raw == nil {
				require.NoError(t, f.repo.DeleteRawValue(ctx, f.owner, "gallery"))
			} else {
				f.set(t, "gallery", raw)
			}
			f.svc.InvalidateContent(f.owner)

			v, err := f.svc.GetConvertedValue(ctx, f.snapshot(), f.owner, "gallery", false)
			require.NoError(t, err)
			assert.Equal(t, []*mediapicker.MediaWithCrops{}, v)

			has, err := f.svc.HasValue(ctx, f.snapshot(), f.owner, "gallery", false)
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
	assert.Empty(t, f.source.looked())
}

func TestConverter_EmptySingleIsTypedNil(t *testing.T) {
	f := newFixture(t)
	f.set(t, "hero", "[]")

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "hero", false)
	require.NoError(t, err)
	m, ok := v.(*mediapicker.MediaWithCrops)
	require.True(t, ok)
	assert.Nil(t, m)
	assert.NotEqual(t, nil, v)
	assert.True(t, simplevalues.IsAbsent(v))
}

func TestConverter_MultipleDropsUnresolvable(t *testing.T) {
	f := newFixture(t)
	a := f.media(t, "Image")
	b := uuid.New()
	c := f.media(t, "Image")
	f.set(t, "gallery", refs(a, b, c))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)

	items, ok := v.([]*mediapicker.MediaWithCrops)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].Content.Key)
	assert.Equal(t, c, items[1].Content.Key)
	assert.Equal(t, []uuid.UUID{b}, f.reporter.unresolved)
}

func TestConverter_MultipleOnlyUnresolvable(t *testing.T) {
	f := newFixture(t)
	a := f.media(t, "Image")
	b := uuid.New()
	f.set(t, "gallery", refs(a, b))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	items := v.([]*mediapicker.MediaWithCrops)
	require.Len(t, items, 1)
	assert.Equal(t, a, items[0].Content.Key)
}

func TestConverter_SingleStopsAtFirstResolved(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()
	a := f.media(t, "Image")
	b := f.media(t, "Image")
	f.set(t, "hero", refs(missing, a, b))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "hero", false)
	require.NoError(t, err)

	m, ok := v.(*mediapicker.MediaWithCrops)
	require.True(t, ok)
	require.NotNil(t, m)
	assert.Equal(t, a, m.Content.Key)
	assert.Equal(t, []uuid.UUID{missing, a}, f.source.looked())
	assert.NotContains(t, f.source.looked(), b)
}

func TestConverter_SingleAllUnresolvable(t *testing.T) {
	f := newFixture(t)
	f.set(t, "hero", refs(uuid.New()))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "hero", false)
	require.NoError(t, err)
	assert.Nil(t, v.(*mediapicker.MediaWithCrops))
}

func TestConverter_PassThroughUnknownEditor(t *testing.T) {
	f := newFixture(t)
	raw := fmt.Sprintf(`["%s"]`, f.media(t, "Image"))
	f.set(t, "legacy", raw)

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "legacy", false)
	require.NoError(t, err)
	assert.Equal(t, raw, v)
	assert.Empty(t, f.source.looked())
}

func TestConverter_SnapshotIdentity(t *testing.T) {
	f := newFixture(t)
	f.set(t, "gallery", refs(f.media(t, "Image")))
	ctx := context.Background()
	snap := f.snapshot()

	first, err := f.svc.GetConvertedValue(ctx, snap, f.owner, "gallery", false)
	require.NoError(t, err)
	second, err := f.svc.GetConvertedValue(ctx, snap, f.owner, "gallery", false)
	require.NoError(t, err)

	firstItems := first.([]*mediapicker.MediaWithCrops)
	secondItems := second.([]*mediapicker.MediaWithCrops)
	assert.Same(t, &firstItems[0], &secondItems[0])
	assert.Len(t, f.source.looked(), 1)

	// A new snapshot converts again
	third, err := f.svc.GetConvertedValue(ctx, f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	thirdItems := third.([]*mediapicker.MediaWithCrops)
	assert.NotSame(t, firstItems[0], thirdItems[0])
	assert.Equal(t, firstItems[0].Content.Key, thirdItems[0].Content.Key)
	assert.Len(t, f.source.looked(), 2)
}

func TestConverter_PreviewIsolation(t *testing.T) {
	f := newFixture(t)
	key := f.media(t, "Image")
	f.set(t, "gallery", refs(key))
	ctx := context.Background()
	snap := f.snapshot()

	published, err := f.svc.GetConvertedValue(ctx, snap, f.owner, "gallery", false)
	require.NoError(t, err)
	preview, err := f.svc.GetConvertedValue(ctx, snap, f.owner, "gallery", true)
	require.NoError(t, err)

	p := published.([]*mediapicker.MediaWithCrops)
	d := preview.([]*mediapicker.MediaWithCrops)
	require.Len(t, p, 1)
	require.Len(t, d, 1)
	assert.NotSame(t, p[0], d[0])
	// Intermediates live on the content item, so only the two objects are here
	assert.Equal(t, 2, snap.Cache().Len())
}

func TestConverter_PreviewSeesDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := uuid.New()
	require.NoError(t, f.repo.SaveDraft(ctx, &simplevalues.Entity{Key: draft, ContentTypeAlias: "Image", FilePath: "d.jpg"}))
	f.set(t, "gallery", refs(draft))
	snap := f.snapshot()

	v, err := f.svc.GetConvertedValue(ctx, snap, f.owner, "gallery", false)
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = f.svc.GetConvertedValue(ctx, snap, f.owner, "gallery", true)
	require.NoError(t, err)
	require.Len(t, v, 1)
}

func TestConverter_ComposesCrops(t *testing.T) {
	f := newFixture(t)
	key := f.media(t, "Image")
	f.set(t, "hero", fmt.Sprintf(`[{"key":"%s","mediaKey":"%s",
		"crops":[{"alias":"banner","width":1,"height":1,"coordinates":{"x1":0.1,"y1":0.2,"x2":0.3,"y2":0.4}},
		         {"alias":"stale","width":5,"height":5}],
		"focalPoint":{"left":0.25,"top":0.75}}]`, uuid.New(), key))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "hero", false)
	require.NoError(t, err)
	m := v.(*mediapicker.MediaWithCrops)
	require.NotNil(t, m)

	assert.Equal(t, mediapicker.MediaKindImage, m.Kind)
	assert.Equal(t, "https://cdn.example.com/media/"+key.String()+".jpg", m.LocalCrops.Src)
	require.NotNil(t, m.LocalCrops.FocalPoint)
	assert.Equal(t, 0.25, m.LocalCrops.FocalPoint.Left)

	require.Len(t, m.LocalCrops.Crops, 2)
	assert.Equal(t, "thumb", m.LocalCrops.Crops[0].Alias)
	assert.Nil(t, m.LocalCrops.Crops[0].Coordinates)
	assert.Equal(t, "banner", m.LocalCrops.Crops[1].Alias)
	assert.Equal(t, 1200, m.LocalCrops.Crops[1].Width)
	require.NotNil(t, m.LocalCrops.Crops[1].Coordinates)

	url, ok := m.CropURL("banner")
	require.True(t, ok)
	assert.Contains(t, url, "?crop=0.1,0.2,0.3,0.4&cropmode=percentage&width=1200&height=400")

	url, ok = m.CropURL("thumb")
	require.True(t, ok)
	assert.Contains(t, url, "?center=0.75,0.25&mode=crop&width=100&height=100")
}

func TestConverter_FocalPointDisabled(t *testing.T) {
	f := newFixture(t)
	key := f.media(t, "Image")
	f.set(t, "gallery", fmt.Sprintf(`[{"mediaKey":"%s","focalPoint":{"left":0.5,"top":0.5}}]`, key))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	items := v.([]*mediapicker.MediaWithCrops)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].LocalCrops.FocalPoint)
}

func TestConverter_FileFactoryDropsCrops(t *testing.T) {
	f := newFixture(t)
	key := f.media(t, "File")
	f.set(t, "gallery", refs(key))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	items := v.([]*mediapicker.MediaWithCrops)
	require.Len(t, items, 1)
	assert.Equal(t, mediapicker.MediaKindFile, items[0].Kind)
	assert.Empty(t, items[0].LocalCrops.Crops)
	assert.NotEmpty(t, items[0].LocalCrops.Src)
}

func TestConverter_CustomFactory(t *testing.T) {
	var seen []string
	f := newFixture(t, mediapicker.WithFactory("Poster", func(e *simplevalues.Entity, c mediapicker.ImageCropperValue) *mediapicker.MediaWithCrops {
		seen = append(seen, e.Name)
		return mediapicker.ImageFactory(e, c)
	}))
	f.set(t, "gallery", refs(f.media(t, "Poster")))

	_, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}

func TestConverter_MalformedEntriesSkipped(t *testing.T) {
	f := newFixture(t)
	a := f.media(t, "Image")
	b := f.media(t, "Image")
	f.set(t, "gallery", fmt.Sprintf(`[{"mediaKey":"%s"}, 42, {"key":"%s"}, {"mediaKey":"%s"}]`, a, uuid.New(), b))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	items := v.([]*mediapicker.MediaWithCrops)
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].Content.Key)
	assert.Equal(t, b, items[1].Content.Key)
	assert.Equal(t, []int{1, 2}, f.reporter.malformed)
}

func TestConverter_LegacyUDIList(t *testing.T) {
	f := newFixture(t)
	a := f.media(t, "Image")
	b := f.media(t, "Image")
	f.set(t, "gallery", fmt.Sprintf("umb://media/%s,%s", hex(a), b))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	items := v.([]*mediapicker.MediaWithCrops)
	require.Len(t, items, 2)
	assert.Equal(t, a, items[0].Content.Key)
	assert.Equal(t, b, items[1].Content.Key)
}

func TestConverter_URLFailureLeavesSrcEmpty(t *testing.T) {
	f := newFixture(t, mediapicker.WithURLStrategy(urlstrategy.NewStorageDelegatedStrategy(nil)))
	f.set(t, "gallery", refs(f.media(t, "Image")))

	v, err := f.svc.GetConvertedValue(context.Background(), f.snapshot(), f.owner, "gallery", false)
	require.NoError(t, err)
	items := v.([]*mediapicker.MediaWithCrops)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].LocalCrops.Src)
	assert.Len(t, f.reporter.failed, 1)
}

func TestConverter_SourceErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.set(t, "gallery", refs(f.media(t, "Image")))
	f.source.err = errors.New("connection refused")
	snap := f.snapshot()

	_, err := f.svc.GetConvertedValue(context.Background(), snap, f.owner, "gallery", false)
	require.Error(t, err)
	var convErr *simplevalues.ConversionError
	assert.True(t, errors.As(err, &convErr))

	// Failures are not cached
	f.source.err = nil
	v, err := f.svc.GetConvertedValue(context.Background(), snap, f.owner, "gallery", false)
	require.NoError(t, err)
	assert.Len(t, v, 1)
}

func TestConverter_ResultTypes(t *testing.T) {
	c := mediapicker.NewConverter()
	multiple := simplevalues.NewPropertyDescriptor("a", "p", mediapicker.EditorAlias, json.RawMessage(`{"multiple":true}`))
	single := simplevalues.NewPropertyDescriptor("a", "p", mediapicker.EditorAlias, nil)

	assert.Equal(t, "[]*mediapicker.MediaWithCrops", c.ResultType(multiple).String())
	assert.Equal(t, "*mediapicker.MediaWithCrops", c.ResultType(single).String())
	assert.Equal(t, simplevalues.CacheLevelContentSnapshot, c.CacheLevel(single))
	assert.Equal(t, simplevalues.CacheLevelContent, c.IntermediateCacheLevel(single))

	assert.NoError(t, simplevalues.CheckResultType(c, multiple, []*mediapicker.MediaWithCrops{}))
	assert.NoError(t, simplevalues.CheckResultType(c, single, (*mediapicker.MediaWithCrops)(nil)))
	assert.Error(t, simplevalues.CheckResultType(c, single, []*mediapicker.MediaWithCrops{}))
}

func TestConverter_IsValue(t *testing.T) {
	c := mediapicker.NewConverter()
	tests := []struct {
		raw  any
		want simplevalues.IsValue
	}{
		{nil, simplevalues.IsValueFalse},
		{"", simplevalues.IsValueFalse},
		{"[]", simplevalues.IsValueFalse},
		{"  []\n", simplevalues.IsValueFalse},
		{json.RawMessage("[]"), simplevalues.IsValueFalse},
		{`[{"mediaKey":"x"}]`, simplevalues.IsValueTrue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsValue(tt.raw, simplevalues.ValueStageSource), "%v", tt.raw)
	}
	assert.Equal(t, simplevalues.IsValueDeferred, c.IsValue(nil, simplevalues.ValueStageObject))
}

func hex(k uuid.UUID) string {
	return strings.ReplaceAll(k.String(), "-", "")
}
