package simplevalues

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Converter turns the raw value of a property into a typed object.
//
// Implementations must be safe for concurrent use. IsConverter, ResultType
// and CacheLevel must be deterministic for a given descriptor.
type Converter interface {
	// Name identifies the converter in registries, logs and errors
	Name() string

	// IsConverter reports whether this converter handles the property
	IsConverter(d *PropertyDescriptor) bool

	// IsValue reports whether a value is meaningfully present at a stage,
	// or defers to the generic null/empty rule
	IsValue(value any, stage ValueStage) IsValue

	// ResultType is the type of the object ConvertToObject returns
	ResultType(d *PropertyDescriptor) reflect.Type

	// CacheLevel is the scope for which the converted object may be reused
	CacheLevel(d *PropertyDescriptor) CacheLevel

	// ConvertToIntermediate parses the raw value. It must not resolve
	// references and should drop unparseable entries rather than fail.
	ConvertToIntermediate(ctx context.Context, d *PropertyDescriptor, raw any, preview bool) (any, error)

	// ConvertToObject builds the final object, possibly resolving
	// references through conv.Snapshot
	ConvertToObject(ctx context.Context, conv *Conversion, intermediate any) (any, error)
}

// IntermediateCacheLevelProvider is implemented by converters whose
// intermediate value may be cached at a different level than the object.
type IntermediateCacheLevelProvider interface {
	IntermediateCacheLevel(d *PropertyDescriptor) CacheLevel
}

// Conversion carries the context of one ConvertToObject call.
type Conversion struct {
	Owner      *ContentItem
	Descriptor *PropertyDescriptor
	Snapshot   Snapshot
	Preview    bool
}

// GenericIsValue applies the default presence rule. At the source stage a
// nil value or a blank string is absent. At later stages nil values and
// empty sequences are absent.
func GenericIsValue(value any, stage ValueStage) bool {
	if value == nil {
		return false
	}
	if stage == ValueStageSource {
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v) != ""
		case []byte:
			return strings.TrimSpace(string(v)) != ""
		case json.RawMessage:
			return strings.TrimSpace(string(v)) != ""
		}
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() > 0
	}
	return true
}

// IsAbsent reports whether a converted value stands for "no value": a nil
// interface or a typed nil pointer, map or slice such as the
// (*MediaWithCrops)(nil) of a single media picker. Use it instead of v == nil.
func IsAbsent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// ResolveIsValue combines a converter answer with the generic rule.
func ResolveIsValue(c Converter, value any, stage ValueStage) bool {
	if v := c.IsValue(value, stage); v.Decided() {
		return v.Bool()
	}
	return GenericIsValue(value, stage)
}

// BaseConverter provides defaults for converters that embed it: IsValue
// defers at every stage and the intermediate stage returns the raw value.
type BaseConverter struct{}

// IsValue defers to the generic rule.
func (BaseConverter) IsValue(value any, stage ValueStage) IsValue {
	return IsValueDeferred
}

// ConvertToIntermediate returns the raw value unchanged.
func (BaseConverter) ConvertToIntermediate(ctx context.Context, d *PropertyDescriptor, raw any, preview bool) (any, error) {
	return raw, nil
}

// CheckResultType verifies that a converted value matches the converter's
// declared result type. It is meant for tests and validation, not per request.
func CheckResultType(c Converter, d *PropertyDescriptor, value any) error {
	want := c.ResultType(d)
	if want == nil {
		return fmt.Errorf("%w: %s declares no result type for %s", ErrResultTypeMismatch, c.Name(), d)
	}
	if value == nil {
		switch want.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
			return nil
		}
		return fmt.Errorf("%w: %s returned nil for non-nillable %s", ErrResultTypeMismatch, c.Name(), want)
	}
	got := reflect.TypeOf(value)
	if want.Kind() == reflect.Interface {
		if got.Implements(want) {
			return nil
		}
	} else if got == want {
		return nil
	}
	return fmt.Errorf("%w: %s declares %s but returned %s for %s", ErrResultTypeMismatch, c.Name(), want, got, d)
}
