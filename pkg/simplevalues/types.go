package simplevalues

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CacheLevel is the scope for which a converted value may be reused.
// Levels are ordered by increasing lifetime.
type CacheLevel int

const (
	// CacheLevelNone never caches; every read re-runs both conversion stages.
	CacheLevelNone CacheLevel = iota
	// CacheLevelElementValue caches within a single composite evaluation.
	CacheLevelElementValue
	// CacheLevelContentSnapshot caches for the lifetime of the current Snapshot.
	CacheLevelContentSnapshot
	// CacheLevelContent caches on the content item representation until it is invalidated.
	CacheLevelContent
)

var cacheLevelNames = map[CacheLevel]string{
	CacheLevelNone:            "none",
	CacheLevelElementValue:    "element_value",
	CacheLevelContentSnapshot: "content_snapshot",
	CacheLevelContent:         "content",
}

func (l CacheLevel) String() string {
	if name, ok := cacheLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("cache_level(%d)", int(l))
}

// ParseCacheLevel parses the lowercase name of a cache level.
func ParseCacheLevel(s string) (CacheLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, name := range cacheLevelNames {
		if name == s {
			return level, nil
		}
	}
	return CacheLevelNone, fmt.Errorf("unknown cache level %q", s)
}

// ValueStage identifies which representation of a property value is being inspected.
type ValueStage int

const (
	ValueStageSource ValueStage = iota
	ValueStageIntermediate
	ValueStageObject
)

func (s ValueStage) String() string {
	switch s {
	case ValueStageSource:
		return "source"
	case ValueStageIntermediate:
		return "intermediate"
	case ValueStageObject:
		return "object"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// IsValue is the three-valued answer of Converter.IsValue. A deferred answer
// means the generic null/empty rule decides.
type IsValue int

const (
	IsValueDeferred IsValue = iota
	IsValueTrue
	IsValueFalse
)

// IsValueOf returns the decided IsValue for b.
func IsValueOf(b bool) IsValue {
	if b {
		return IsValueTrue
	}
	return IsValueFalse
}

// Decided reports whether the answer is definite.
func (v IsValue) Decided() bool {
	return v != IsValueDeferred
}

// Bool returns the definite answer. Deferred answers report false.
func (v IsValue) Bool() bool {
	return v == IsValueTrue
}

func (v IsValue) String() string {
	switch v {
	case IsValueTrue:
		return "true"
	case IsValueFalse:
		return "false"
	default:
		return "deferred"
	}
}

// PropertyDescriptor is the static metadata of one property of one content type.
// It is immutable once built and shared by every conversion of that property.
type PropertyDescriptor struct {
	ContentTypeAlias     string          `json:"content_type_alias"`
	Alias                string          `json:"alias"`
	EditorAlias          string          `json:"editor_alias"`
	Configuration        json.RawMessage `json:"configuration,omitempty"`
	AllowsMultipleValues bool            `json:"allows_multiple_values"`
}

// NewPropertyDescriptor builds a descriptor and derives AllowsMultipleValues
// from the "multiple" key of the configuration.
func NewPropertyDescriptor(contentTypeAlias, alias, editorAlias string, configuration json.RawMessage) *PropertyDescriptor {
	d := &PropertyDescriptor{
		ContentTypeAlias: contentTypeAlias,
		Alias:            alias,
		EditorAlias:      editorAlias,
		Configuration:    configuration,
	}
	var flags struct {
		Multiple bool `json:"multiple"`
	}
	if len(configuration) > 0 && json.Unmarshal(configuration, &flags) == nil {
		d.AllowsMultipleValues = flags.Multiple
	}
	return d
}

// ConfigurationAs decodes the descriptor configuration into v.
// An empty configuration leaves v untouched.
func (d *PropertyDescriptor) ConfigurationAs(v any) error {
	if len(d.Configuration) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Configuration, v); err != nil {
		return fmt.Errorf("decode configuration of %s.%s: %w", d.ContentTypeAlias, d.Alias, err)
	}
	return nil
}

func (d *PropertyDescriptor) String() string {
	return d.ContentTypeAlias + "." + d.Alias
}

// Entity is a content or media item resolved through a Snapshot.
type Entity struct {
	Key              uuid.UUID `json:"key"`
	ContentTypeAlias string    `json:"content_type_alias"`
	Name             string    `json:"name"`
	FilePath         string    `json:"file_path,omitempty"`
	Published        bool      `json:"published"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ContentItem identifies the owner of a set of raw property values.
// Revision changes whenever the stored values change.
type ContentItem struct {
	ID               uuid.UUID `json:"id"`
	ContentTypeAlias string    `json:"content_type_alias"`
	Revision         int64     `json:"revision"`
}

// PropertyInfo describes how a property converts, for callers that need the
// shape of a value before fetching it.
type PropertyInfo struct {
	Descriptor *PropertyDescriptor
	Converter  string
	ResultType string
	CacheLevel CacheLevel
}
