package simplevalues

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrContentNotFound indicates a content item was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrContentTypeNotFound indicates a content type has no property descriptors
	ErrContentTypeNotFound = errors.New("content type not found")

	// ErrPropertyNotFound indicates the content type has no such property
	ErrPropertyNotFound = errors.New("property not found")

	// ErrEntityNotFound indicates a referenced entity is missing or unpublished
	ErrEntityNotFound = errors.New("entity not found")

	// ErrAmbiguousConverter indicates more than one converter claims a property
	ErrAmbiguousConverter = errors.New("more than one converter claims property")

	// ErrDuplicateConverter indicates two converters were registered under one name
	ErrDuplicateConverter = errors.New("duplicate converter name")

	// ErrResultTypeMismatch indicates a converter returned a value of a type it did not declare
	ErrResultTypeMismatch = errors.New("converter result type mismatch")
)

// ConfigurationError is a fault in how converters map onto a content type.
// It prevents the content type from being served.
type ConfigurationError struct {
	ContentTypeAlias string
	PropertyAlias    string
	EditorAlias      string
	Converters       []string
	Err              error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration fault for property %s.%s (editor %s): %v",
		e.ContentTypeAlias, e.PropertyAlias, e.EditorAlias, e.Err)
	if len(e.Converters) > 0 {
		msg += " [" + strings.Join(e.Converters, ", ") + "]"
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ConversionError represents a failure while converting one property value
type ConversionError struct {
	ContentID     uuid.UUID
	PropertyAlias string
	Op            string
	Err           error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion %s failed for property %s of content %s: %v", e.Op, e.PropertyAlias, e.ContentID, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
