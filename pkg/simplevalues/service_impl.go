package simplevalues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	contents ContentSource
	types    ContentTypeSource
	registry *Registry
	reporter Reporter
	logger   *slog.Logger
	memo     memoizer

	mu           sync.RWMutex
	items        map[uuid.UUID]*contentItem
	contentTypes map[string]*contentType
}

// contentItem is the in-memory representation of a content item. It owns
// the cache for CacheLevelContent values and pins raw values read through it.
type contentItem struct {
	record *ContentItem
	source ContentSource
	cache  *ScopeCache
	raw    sync.Map // Key: property alias, Value: rawEntry
}

type rawEntry struct {
	value any
}

func (c *contentItem) rawValue(ctx context.Context, alias string) (any, error) {
	if e, ok := c.raw.Load(alias); ok {
		return e.(rawEntry).value, nil
	}
	v, ok, err := c.source.GetRawValue(ctx, c.record.ID, alias)
	if err != nil {
		return nil, err
	}
	if !ok {
		v = nil
	}
	e, _ := c.raw.LoadOrStore(alias, rawEntry{value: v})
	return e.(rawEntry).value, nil
}

// contentType is a loaded content type with a converter bound to each property.
type contentType struct {
	alias      string
	properties map[string]*propertyType
	fault      error
}

type propertyType struct {
	descriptor *PropertyDescriptor
	converter  Converter
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets both the content source and the content type source
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.contents = repo
		s.types = repo
	}
}

// WithContentSource sets the content source
func WithContentSource(source ContentSource) Option {
	return func(s *service) {
		s.contents = source
	}
}

// WithContentTypeSource sets the content type source
func WithContentTypeSource(source ContentTypeSource) Option {
	return func(s *service) {
		s.types = source
	}
}

// WithRegistry sets the converter registry
func WithRegistry(registry *Registry) Option {
	return func(s *service) {
		s.registry = registry
	}
}

// WithReporter sets the sink for non-fatal anomalies
func WithReporter(reporter Reporter) Option {
	return func(s *service) {
		s.reporter = reporter
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		items:        make(map[uuid.UUID]*contentItem),
		contentTypes: make(map[string]*contentType),
	}

	for _, option := range options {
		option(s)
	}

	if s.contents == nil {
		return nil, errors.New("content source is required")
	}
	if s.types == nil {
		return nil, errors.New("content type source is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		registry, err := NewRegistry()
		if err != nil {
			return nil, err
		}
		s.registry = registry
	}
	if s.reporter == nil {
		s.reporter = NewLogReporter(s.logger)
	}

	return s, nil
}

func (s *service) GetConvertedValue(ctx context.Context, snap Snapshot, contentID uuid.UUID, propertyAlias string, preview bool) (any, error) {
	req, err := s.request(ctx, snap, contentID, propertyAlias, preview)
	if err != nil {
		return nil, err
	}

	v, err := s.memo.object(ctx, req)
	if err != nil {
		return nil, &ConversionError{
			ContentID:     contentID,
			PropertyAlias: propertyAlias,
			Op:            "convert",
			Err:           err,
		}
	}
	return v, nil
}

func (s *service) HasValue(ctx context.Context, snap Snapshot, contentID uuid.UUID, propertyAlias string, preview bool) (bool, error) {
	req, err := s.request(ctx, snap, contentID, propertyAlias, preview)
	if err != nil {
		return false, err
	}

	raw, err := req.item.rawValue(ctx, propertyAlias)
	if err != nil {
		return false, &ConversionError{ContentID: contentID, PropertyAlias: propertyAlias, Op: "read", Err: err}
	}
	if v := req.converter.IsValue(raw, ValueStageSource); v.Decided() {
		return v.Bool(), nil
	}
	if !GenericIsValue(raw, ValueStageSource) {
		return false, nil
	}

	obj, err := s.memo.object(ctx, req)
	if err != nil {
		return false, &ConversionError{ContentID: contentID, PropertyAlias: propertyAlias, Op: "convert", Err: err}
	}
	return ResolveIsValue(req.converter, obj, ValueStageObject), nil
}

func (s *service) request(ctx context.Context, snap Snapshot, contentID uuid.UUID, propertyAlias string, preview bool) (*conversionRequest, error) {
	if snap == nil {
		return nil, errors.New("snapshot is required")
	}

	item, err := s.contentItem(ctx, contentID)
	if err != nil {
		return nil, &ConversionError{ContentID: contentID, PropertyAlias: propertyAlias, Op: "load", Err: err}
	}

	pt, err := s.property(ctx, item.record.ContentTypeAlias, propertyAlias)
	if err != nil {
		return nil, &ConversionError{ContentID: contentID, PropertyAlias: propertyAlias, Op: "resolve", Err: err}
	}

	return &conversionRequest{
		item:       item,
		descriptor: pt.descriptor,
		converter:  pt.converter,
		snapshot:   snap,
		preview:    preview,
		reporter:   s.reporter,
	}, nil
}

func (s *service) GetResultType(d *PropertyDescriptor) (reflect.Type, error) {
	c, err := s.registry.Resolve(d)
	if err != nil {
		return nil, err
	}
	return c.ResultType(d), nil
}

func (s *service) GetPropertyDescriptor(ctx context.Context, contentTypeAlias, propertyAlias string) (*PropertyDescriptor, error) {
	return s.types.GetPropertyDescriptor(ctx, contentTypeAlias, propertyAlias)
}

func (s *service) DescribeProperty(ctx context.Context, contentTypeAlias, propertyAlias string) (*PropertyInfo, error) {
	pt, err := s.property(ctx, contentTypeAlias, propertyAlias)
	if err != nil {
		return nil, err
	}
	return describe(pt), nil
}

func (s *service) DescribeContentProperty(ctx context.Context, contentID uuid.UUID, propertyAlias string) (*PropertyInfo, error) {
	item, err := s.contentItem(ctx, contentID)
	if err != nil {
		return nil, err
	}
	pt, err := s.property(ctx, item.record.ContentTypeAlias, propertyAlias)
	if err != nil {
		return nil, err
	}
	return describe(pt), nil
}

func describe(pt *propertyType) *PropertyInfo {
	info := &PropertyInfo{
		Descriptor: pt.descriptor,
		Converter:  pt.converter.Name(),
		CacheLevel: pt.converter.CacheLevel(pt.descriptor),
	}
	if t := pt.converter.ResultType(pt.descriptor); t != nil {
		info.ResultType = t.String()
	}
	return info
}

func (s *service) ValidateContentTypes(ctx context.Context) error {
	aliases, err := s.types.ListContentTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list content types: %w", err)
	}

	var errs []error
	for _, alias := range aliases {
		ct, err := s.contentType(ctx, alias)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ct.fault != nil {
			errs = append(errs, ct.fault)
		}
	}
	return errors.Join(errs...)
}

func (s *service) InvalidateContent(contentID uuid.UUID) {
	s.mu.Lock()
	delete(s.items, contentID)
	s.mu.Unlock()

	s.logger.Debug("Content invalidated", "content_id", contentID.String())
}

func (s *service) InvalidateContentType(contentTypeAlias string) {
	s.mu.Lock()
	delete(s.contentTypes, contentTypeAlias)
	for id, item := range s.items {
		if item.record.ContentTypeAlias == contentTypeAlias {
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	s.logger.Debug("Content type invalidated", "content_type", contentTypeAlias)
}

func (s *service) contentItem(ctx context.Context, id uuid.UUID) (*contentItem, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()
	if ok {
		return item, nil
	}

	record, err := s.contents.GetContentItem(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.items[id]; ok {
		return existing, nil
	}
	item = &contentItem{
		record: record,
		source: s.contents,
		cache:  NewScopeCache(),
	}
	s.items[id] = item
	return item, nil
}

func (s *service) property(ctx context.Context, contentTypeAlias, propertyAlias string) (*propertyType, error) {
	ct, err := s.contentType(ctx, contentTypeAlias)
	if err != nil {
		return nil, err
	}
	if ct.fault != nil {
		return nil, ct.fault
	}
	pt, ok := ct.properties[propertyAlias]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, contentTypeAlias, propertyAlias)
	}
	return pt, nil
}

// contentType loads a content type and binds converters to its properties.
// Configuration faults are kept on the loaded type so it is never served.
func (s *service) contentType(ctx context.Context, alias string) (*contentType, error) {
	s.mu.RLock()
	ct, ok := s.contentTypes[alias]
	s.mu.RUnlock()
	if ok {
		return ct, nil
	}

	descriptors, err := s.types.ListPropertyDescriptors(ctx, alias)
	if err != nil {
		return nil, err
	}

	ct = &contentType{
		alias:      alias,
		properties: make(map[string]*propertyType, len(descriptors)),
	}
	var faults []error
	for _, d := range descriptors {
		c, err := s.registry.Resolve(d)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				s.reporter.ConfigurationFault(ctx, cfgErr)
			}
			faults = append(faults, err)
			continue
		}
		ct.properties[d.Alias] = &propertyType{descriptor: d, converter: c}
	}
	ct.fault = errors.Join(faults...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.contentTypes[alias]; ok {
		return existing, nil
	}
	s.contentTypes[alias] = ct
	return ct, nil
}
