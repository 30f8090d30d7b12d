package schema

import (
	"context"
	"fmt"
	"sort"

	"github.com/tendant/simple-values/pkg/simplevalues"
)

var _ simplevalues.ContentTypeSource = (*Source)(nil)

// Source serves descriptors loaded from schema files. It is immutable after Load.
type Source struct {
	types map[string][]*simplevalues.PropertyDescriptor
	order []string
}

func newSource() *Source {
	return &Source{types: make(map[string][]*simplevalues.PropertyDescriptor)}
}

func (s *Source) add(d *simplevalues.PropertyDescriptor) error {
	list, ok := s.types[d.ContentTypeAlias]
	if !ok {
		s.order = append(s.order, d.ContentTypeAlias)
	}
	for _, existing := range list {
		if existing.Alias == d.Alias {
			return fmt.Errorf("property %s declared twice", d)
		}
	}
	s.types[d.ContentTypeAlias] = append(list, d)
	return nil
}

// Descriptors returns every loaded descriptor, content types in load order.
func (s *Source) Descriptors() []*simplevalues.PropertyDescriptor {
	var all []*simplevalues.PropertyDescriptor
	for _, alias := range s.order {
		all = append(all, s.types[alias]...)
	}
	return all
}

func (s *Source) GetPropertyDescriptor(ctx context.Context, contentTypeAlias, propertyAlias string) (*simplevalues.PropertyDescriptor, error) {
	for _, d := range s.types[contentTypeAlias] {
		if d.Alias == propertyAlias {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", simplevalues.ErrPropertyNotFound, contentTypeAlias, propertyAlias)
}

func (s *Source) ListPropertyDescriptors(ctx context.Context, contentTypeAlias string) ([]*simplevalues.PropertyDescriptor, error) {
	list, ok := s.types[contentTypeAlias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", simplevalues.ErrContentTypeNotFound, contentTypeAlias)
	}
	return append([]*simplevalues.PropertyDescriptor(nil), list...), nil
}

func (s *Source) ListContentTypes(ctx context.Context) ([]string, error) {
	aliases := append([]string(nil), s.order...)
	sort.Strings(aliases)
	return aliases, nil
}
