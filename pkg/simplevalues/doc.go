// Package simplevalues converts raw, storage-format property values of
// content and media items into typed, application-ready objects.
//
// Conversion runs in two stages. A Converter first turns the stored value
// into a converter-private intermediate form (a pure parse that never looks
// at other entities), then turns the intermediate form into the final object,
// resolving references to other items through a point-in-time Snapshot.
//
// Converter Selection
//
// Each property is described by a PropertyDescriptor (editor alias plus an
// opaque configuration). The Registry picks the single converter whose
// IsConverter predicate accepts the descriptor. When nothing claims a
// property, the raw value is passed through unconverted. When more than one
// converter claims a property, the content type is not served and a
// ConfigurationError is returned instead.
//
// Cache Levels
//
// Every converter declares the CacheLevel at which its output may be reused:
//
//	CacheLevelNone            never reused, both stages re-run on every read
//	CacheLevelElementValue    reused within one composite evaluation (WithElementScope)
//	CacheLevelContentSnapshot reused for the lifetime of the Snapshot
//	CacheLevelContent         reused until the content item is invalidated
//
// Cache keys always include the preview flag, so draft reads never share
// results with published reads.
package simplevalues
