package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
)

var (
	_ simplevalues.Repository = (*Repository)(nil)
	_ snapshot.EntitySource   = (*Repository)(nil)
)

// Repository implements the content, content type and entity sources using
// in-memory storage. The seeding methods exist for tests and development;
// the conversion pipeline only reads.
type Repository struct {
	mu          sync.RWMutex
	items       map[uuid.UUID]*simplevalues.ContentItem
	rawValues   map[uuid.UUID]map[string]any                  // content_id -> alias -> raw value
	descriptors map[string][]*simplevalues.PropertyDescriptor // content type alias -> descriptors
	published   map[uuid.UUID]*simplevalues.Entity
	drafts      map[uuid.UUID]*simplevalues.Entity
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		items:       make(map[uuid.UUID]*simplevalues.ContentItem),
		rawValues:   make(map[uuid.UUID]map[string]any),
		descriptors: make(map[string][]*simplevalues.PropertyDescriptor),
		published:   make(map[uuid.UUID]*simplevalues.Entity),
		drafts:      make(map[uuid.UUID]*simplevalues.Entity),
	}
}

// Content operations

// PutContentItem stores a content item record
func (r *Repository) PutContentItem(ctx context.Context, item *simplevalues.ContentItem) error {
	if item.ID == uuid.Nil {
		return fmt.Errorf("content item id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	itemCopy := *item
	r.items[item.ID] = &itemCopy
	if _, ok := r.rawValues[item.ID]; !ok {
		r.rawValues[item.ID] = make(map[string]any)
	}
	return nil
}

// SetRawValue stores the raw value of a property and bumps the item revision
func (r *Repository) SetRawValue(ctx context.Context, contentID uuid.UUID, propertyAlias string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[contentID]
	if !ok {
		return simplevalues.ErrContentNotFound
	}
	r.rawValues[contentID][propertyAlias] = copyRaw(value)
	item.Revision++
	return nil
}

// DeleteRawValue removes the stored value of a property
func (r *Repository) DeleteRawValue(ctx context.Context, contentID uuid.UUID, propertyAlias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[contentID]
	if !ok {
		return simplevalues.ErrContentNotFound
	}
	delete(r.rawValues[contentID], propertyAlias)
	item.Revision++
	return nil
}

func (r *Repository) GetContentItem(ctx context.Context, id uuid.UUID) (*simplevalues.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, simplevalues.ErrContentNotFound
	}
	// Return a copy to prevent external modifications
	itemCopy := *item
	return &itemCopy, nil
}

func (r *Repository) GetRawValue(ctx context.Context, contentID uuid.UUID, propertyAlias string) (any, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values, ok := r.rawValues[contentID]
	if !ok {
		return nil, false, simplevalues.ErrContentNotFound
	}
	v, ok := values[propertyAlias]
	if !ok {
		return nil, false, nil
	}
	return copyRaw(v), true, nil
}

// Content type operations

// PutPropertyDescriptor adds or replaces a property descriptor of a content type
func (r *Repository) PutPropertyDescriptor(ctx context.Context, d *simplevalues.PropertyDescriptor) error {
	if d.ContentTypeAlias == "" || d.Alias == "" {
		return fmt.Errorf("content type alias and property alias are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	dCopy := copyDescriptor(d)
	list := r.descriptors[d.ContentTypeAlias]
	for i, existing := range list {
		if existing.Alias == d.Alias {
			list[i] = dCopy
			return nil
		}
	}
	r.descriptors[d.ContentTypeAlias] = append(list, dCopy)
	return nil
}

func (r *Repository) GetPropertyDescriptor(ctx context.Context, contentTypeAlias, propertyAlias string) (*simplevalues.PropertyDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.descriptors[contentTypeAlias] {
		if d.Alias == propertyAlias {
			return copyDescriptor(d), nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", simplevalues.ErrPropertyNotFound, contentTypeAlias, propertyAlias)
}

func (r *Repository) ListPropertyDescriptors(ctx context.Context, contentTypeAlias string) ([]*simplevalues.PropertyDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list, ok := r.descriptors[contentTypeAlias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", simplevalues.ErrContentTypeNotFound, contentTypeAlias)
	}
	result := make([]*simplevalues.PropertyDescriptor, 0, len(list))
	for _, d := range list {
		result = append(result, copyDescriptor(d))
	}
	return result, nil
}

func (r *Repository) ListContentTypes(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aliases := make([]string, 0, len(r.descriptors))
	for alias := range r.descriptors {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases, nil
}

// Entity operations

// SaveDraft stores the draft version of an entity, visible to preview reads
func (r *Repository) SaveDraft(ctx context.Context, e *simplevalues.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	eCopy := *e
	eCopy.Published = false
	if eCopy.UpdatedAt.IsZero() {
		eCopy.UpdatedAt = time.Now().UTC()
	}
	r.drafts[e.Key] = &eCopy
	return nil
}

// Publish stores an entity as published. Any draft of it is replaced.
func (r *Repository) Publish(ctx context.Context, e *simplevalues.Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	eCopy := *e
	eCopy.Published = true
	if eCopy.UpdatedAt.IsZero() {
		eCopy.UpdatedAt = time.Now().UTC()
	}
	r.published[e.Key] = &eCopy
	delete(r.drafts, e.Key)
	return nil
}

// Unpublish removes the published version; the entity stays visible to
// preview reads as a draft.
func (r *Repository) Unpublish(ctx context.Context, key uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.published[key]
	if !ok {
		return simplevalues.ErrEntityNotFound
	}
	delete(r.published, key)
	if _, hasDraft := r.drafts[key]; !hasDraft {
		draft := *e
		draft.Published = false
		r.drafts[key] = &draft
	}
	return nil
}

// DeleteEntity removes an entity entirely
func (r *Repository) DeleteEntity(ctx context.Context, key uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.published, key)
	delete(r.drafts, key)
	return nil
}

// GetEntity returns the published entity, or for preview reads the draft
// when one exists.
func (r *Repository) GetEntity(ctx context.Context, key uuid.UUID, preview bool) (*simplevalues.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if preview {
		if e, ok := r.drafts[key]; ok {
			eCopy := *e
			return &eCopy, nil
		}
	}
	if e, ok := r.published[key]; ok {
		eCopy := *e
		return &eCopy, nil
	}
	return nil, fmt.Errorf("%w: %s", simplevalues.ErrEntityNotFound, key)
}

func copyDescriptor(d *simplevalues.PropertyDescriptor) *simplevalues.PropertyDescriptor {
	dCopy := *d
	if d.Configuration != nil {
		dCopy.Configuration = append(json.RawMessage(nil), d.Configuration...)
	}
	return &dCopy
}

func copyRaw(v any) any {
	switch b := v.(type) {
	case []byte:
		return append([]byte(nil), b...)
	case json.RawMessage:
		return append(json.RawMessage(nil), b...)
	}
	return v
}
