package mediapicker

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/urlstrategy"
)

const (
	// EditorAlias is the editor alias of media picker properties
	EditorAlias = "Umbraco.MediaPicker3"

	// ConverterName identifies the converter in registries and logs
	ConverterName = "mediapicker"
)

var (
	multipleResultType = reflect.TypeOf([]*MediaWithCrops(nil))
	singleResultType   = reflect.TypeOf((*MediaWithCrops)(nil))
)

// Converter converts media picker values into resolved media items with
// their local crops.
type Converter struct {
	urls      urlstrategy.MediaURLStrategy
	factories map[string]Factory
	fallback  Factory
}

// Option represents a functional option for configuring the converter
type Option func(*Converter)

// WithURLStrategy sets the strategy used to build the media URL (Src)
func WithURLStrategy(s urlstrategy.MediaURLStrategy) Option {
	return func(c *Converter) {
		c.urls = s
	}
}

// WithFactory registers the factory for a media type, replacing any default
func WithFactory(mediaTypeAlias string, f Factory) Option {
	return func(c *Converter) {
		c.factories[mediaTypeAlias] = f
	}
}

// WithFallbackFactory sets the factory used for media types without one
func WithFallbackFactory(f Factory) Option {
	return func(c *Converter) {
		c.fallback = f
	}
}

// NewConverter creates a media picker converter with the default factories
func NewConverter(options ...Option) *Converter {
	c := &Converter{
		factories: DefaultFactories(),
		fallback:  ImageFactory,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Converter) Name() string {
	return ConverterName
}

func (c *Converter) IsConverter(d *simplevalues.PropertyDescriptor) bool {
	return d.EditorAlias == EditorAlias
}

// IsValue treats the empty array marker as absent at the source stage.
func (c *Converter) IsValue(value any, stage simplevalues.ValueStage) simplevalues.IsValue {
	if stage != simplevalues.ValueStageSource {
		return simplevalues.IsValueDeferred
	}
	if !simplevalues.GenericIsValue(value, stage) {
		return simplevalues.IsValueFalse
	}
	s := strings.TrimSpace(string(rawBytes(value)))
	return simplevalues.IsValueOf(s != "[]")
}

func (c *Converter) ResultType(d *simplevalues.PropertyDescriptor) reflect.Type {
	if d.AllowsMultipleValues {
		return multipleResultType
	}
	return singleResultType
}

func (c *Converter) CacheLevel(d *simplevalues.PropertyDescriptor) simplevalues.CacheLevel {
	return simplevalues.CacheLevelContentSnapshot
}

// IntermediateCacheLevel is wider than the object level: parsing depends
// only on the stored value.
func (c *Converter) IntermediateCacheLevel(d *simplevalues.PropertyDescriptor) simplevalues.CacheLevel {
	return simplevalues.CacheLevelContent
}

func (c *Converter) ConvertToIntermediate(ctx context.Context, d *simplevalues.PropertyDescriptor, raw any, preview bool) (any, error) {
	reporter := simplevalues.ReporterFromContext(ctx)
	return ParseReferences(raw, func(index int, err error) {
		reporter.EntryMalformed(ctx, d, index, err)
	}), nil
}

func (c *Converter) ConvertToObject(ctx context.Context, conv *simplevalues.Conversion, intermediate any) (any, error) {
	d := conv.Descriptor
	multiple := d.AllowsMultipleValues

	refs, _ := intermediate.([]MediaReference)
	if len(refs) == 0 {
		return c.empty(multiple), nil
	}

	var cfg Configuration
	if err := d.ConfigurationAs(&cfg); err != nil {
		return nil, err
	}

	reporter := simplevalues.ReporterFromContext(ctx)
	ownerID := conv.Owner.ID

	results := make([]*MediaWithCrops, 0, len(refs))
	for _, ref := range refs {
		entity, err := conv.Snapshot.GetEntity(ctx, ref.MediaKey, conv.Preview)
		if err != nil {
			if errors.Is(err, simplevalues.ErrEntityNotFound) {
				reporter.ReferenceUnresolved(ctx, d, ownerID, ref.MediaKey, conv.Preview)
				continue
			}
			return nil, fmt.Errorf("resolve media %s: %w", ref.MediaKey, err)
		}

		results = append(results, c.compose(ctx, conv, entity, ref, &cfg))
		if !multiple {
			break
		}
	}

	if multiple {
		return results, nil
	}
	if len(results) == 0 {
		return (*MediaWithCrops)(nil), nil
	}
	return results[0], nil
}

func (c *Converter) compose(ctx context.Context, conv *simplevalues.Conversion, entity *simplevalues.Entity, ref MediaReference, cfg *Configuration) *MediaWithCrops {
	crops := ImageCropperValue{Crops: ref.Crops}
	if ref.FocalPoint != nil {
		fp := *ref.FocalPoint
		crops.FocalPoint = &fp
	}
	if c.urls != nil {
		src, err := c.urls.MediaURL(ctx, entity)
		if err != nil {
			simplevalues.ReporterFromContext(ctx).ConversionFailed(ctx, conv.Descriptor, conv.Owner.ID,
				fmt.Errorf("media url for %s: %w", entity.Key, err))
		} else {
			crops.Src = src
		}
	}
	crops.ApplyConfiguration(cfg)

	f, ok := c.factories[entity.ContentTypeAlias]
	if !ok || f == nil {
		f = c.fallback
	}
	return f(entity, crops)
}

func (c *Converter) empty(multiple bool) any {
	if multiple {
		return []*MediaWithCrops{}
	}
	return (*MediaWithCrops)(nil)
}
