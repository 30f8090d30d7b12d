package simplevalues

import (
	"context"
	"reflect"

	"github.com/google/uuid"
)

// Service is the public API of the conversion pipeline.
type Service interface {
	// GetConvertedValue returns the converted value of a property of a content
	// item: a single object, an ordered sequence, or the raw value when no
	// converter claims the property. References resolve against snap.
	// An absent value may come back as a typed nil inside the interface;
	// test it with IsAbsent, not v == nil. The value may be shared with
	// other readers and must not be mutated.
	GetConvertedValue(ctx context.Context, snap Snapshot, contentID uuid.UUID, propertyAlias string, preview bool) (any, error)

	// HasValue reports whether the property holds a meaningful value, checking
	// the stored value first and the converted object only when the converter
	// defers at the source stage.
	HasValue(ctx context.Context, snap Snapshot, contentID uuid.UUID, propertyAlias string, preview bool) (bool, error)

	// GetResultType returns the type GetConvertedValue yields for a property
	GetResultType(d *PropertyDescriptor) (reflect.Type, error)

	// GetPropertyDescriptor returns the descriptor of a property of a content type
	GetPropertyDescriptor(ctx context.Context, contentTypeAlias, propertyAlias string) (*PropertyDescriptor, error)

	// DescribeProperty returns converter, result type and cache level of a property
	DescribeProperty(ctx context.Context, contentTypeAlias, propertyAlias string) (*PropertyInfo, error)

	// DescribeContentProperty is DescribeProperty for the content type of a content item
	DescribeContentProperty(ctx context.Context, contentID uuid.UUID, propertyAlias string) (*PropertyInfo, error)

	// ValidateContentTypes loads every content type and returns all
	// configuration faults joined
	ValidateContentTypes(ctx context.Context) error

	// InvalidateContent drops the in-memory representation of a content item,
	// including its CacheLevelContent values (e.g. on republish)
	InvalidateContent(contentID uuid.UUID)

	// InvalidateContentType drops a loaded content type and every content
	// item representation of that type
	InvalidateContentType(contentTypeAlias string)
}

// Repository combines the content and content-type sources.
type Repository interface {
	ContentSource
	ContentTypeSource
}
