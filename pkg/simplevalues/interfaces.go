package simplevalues

import (
	"context"

	"github.com/google/uuid"
)

// ContentSource is the read side of the content storage layer.
// The pipeline never writes back.
type ContentSource interface {
	// GetContentItem returns the content item record, or ErrContentNotFound
	GetContentItem(ctx context.Context, id uuid.UUID) (*ContentItem, error)

	// GetRawValue returns the stored value of a property. The boolean is false
	// when the item has no stored value for the property.
	GetRawValue(ctx context.Context, contentID uuid.UUID, propertyAlias string) (any, bool, error)
}

// ContentTypeSource is the read side of the type/configuration layer.
type ContentTypeSource interface {
	// GetPropertyDescriptor returns one descriptor, or ErrPropertyNotFound
	GetPropertyDescriptor(ctx context.Context, contentTypeAlias, propertyAlias string) (*PropertyDescriptor, error)

	// ListPropertyDescriptors returns every descriptor of a content type,
	// or ErrContentTypeNotFound
	ListPropertyDescriptors(ctx context.Context, contentTypeAlias string) ([]*PropertyDescriptor, error)

	// ListContentTypes returns the aliases of all known content types
	ListContentTypes(ctx context.Context) ([]string, error)
}

// Snapshot is an immutable, point-in-time read view over the content graph.
// It is shared by all concurrent conversions and must not be mutated by them.
type Snapshot interface {
	// ID identifies the snapshot
	ID() uuid.UUID

	// GetEntity looks up an entity. Preview reads see draft entities; other
	// reads see published entities only. Returns ErrEntityNotFound when absent.
	// Repeated calls within the snapshot lifetime return identical results.
	GetEntity(ctx context.Context, key uuid.UUID, preview bool) (*Entity, error)

	// Cache returns the cache owned by this snapshot, used for
	// CacheLevelContentSnapshot values. It is discarded with the snapshot.
	Cache() *ScopeCache
}

// Reporter receives non-fatal conversion anomalies and configuration faults.
type Reporter interface {
	// ReferenceUnresolved is called when a referenced entity cannot be resolved
	ReferenceUnresolved(ctx context.Context, d *PropertyDescriptor, ownerID uuid.UUID, key uuid.UUID, preview bool)

	// EntryMalformed is called when a stored entry cannot be parsed and is skipped
	EntryMalformed(ctx context.Context, d *PropertyDescriptor, index int, err error)

	// ConfigurationFault is called when a content type cannot be served
	ConfigurationFault(ctx context.Context, err *ConfigurationError)

	// ConversionFailed is called when a non-fatal step of a conversion fails
	ConversionFailed(ctx context.Context, d *PropertyDescriptor, ownerID uuid.UUID, err error)
}
