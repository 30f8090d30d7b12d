package simplevalues

import (
	"errors"
	"fmt"
)

// Registry selects the converter for a property.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	converters  []Converter
	passThrough Converter
}

// NewRegistry creates a registry over the given converters.
// Converter names must be unique.
func NewRegistry(converters ...Converter) (*Registry, error) {
	seen := make(map[string]struct{}, len(converters))
	for _, c := range converters {
		if c == nil {
			return nil, errors.New("nil converter")
		}
		if _, dup := seen[c.Name()]; dup || c.Name() == PassThroughName {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateConverter, c.Name())
		}
		seen[c.Name()] = struct{}{}
	}
	return &Registry{
		converters:  append([]Converter(nil), converters...),
		passThrough: NewPassThroughConverter(),
	}, nil
}

// Converters returns the registered converters in registration order.
func (r *Registry) Converters() []Converter {
	return append([]Converter(nil), r.converters...)
}

// Resolve returns the single converter claiming d. Unclaimed properties get
// the pass-through converter. A property claimed by more than one converter
// is a configuration fault.
func (r *Registry) Resolve(d *PropertyDescriptor) (Converter, error) {
	var matches []Converter
	for _, c := range r.converters {
		if c.IsConverter(d) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return r.passThrough, nil
	case 1:
		return matches[0], nil
	}

	names := make([]string, 0, len(matches))
	for _, c := range matches {
		names = append(names, c.Name())
	}
	return nil, &ConfigurationError{
		ContentTypeAlias: d.ContentTypeAlias,
		PropertyAlias:    d.Alias,
		EditorAlias:      d.EditorAlias,
		Converters:       names,
		Err:              ErrAmbiguousConverter,
	}
}

// Validate resolves every descriptor and returns all configuration faults joined.
func (r *Registry) Validate(descriptors []*PropertyDescriptor) error {
	var errs []error
	for _, d := range descriptors {
		if _, err := r.Resolve(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
