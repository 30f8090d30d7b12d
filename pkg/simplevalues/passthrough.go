package simplevalues

import (
	"context"
	"reflect"
)

// PassThroughName is the name of the fallback converter.
const PassThroughName = "passthrough"

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// PassThroughConverter returns raw values unconverted. The Registry falls back
// to it for properties no registered converter claims; it never claims a
// property itself.
type PassThroughConverter struct {
	BaseConverter
}

// NewPassThroughConverter creates the fallback converter
func NewPassThroughConverter() *PassThroughConverter {
	return &PassThroughConverter{}
}

func (c *PassThroughConverter) Name() string { return PassThroughName }

func (c *PassThroughConverter) IsConverter(d *PropertyDescriptor) bool { return false }

func (c *PassThroughConverter) ResultType(d *PropertyDescriptor) reflect.Type { return anyType }

func (c *PassThroughConverter) CacheLevel(d *PropertyDescriptor) CacheLevel {
	return CacheLevelContentSnapshot
}

func (c *PassThroughConverter) ConvertToObject(ctx context.Context, conv *Conversion, intermediate any) (any, error) {
	return intermediate, nil
}
