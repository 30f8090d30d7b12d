// Package mediapicker implements the converter for media picker properties
// with local crops.
//
// The stored value is a JSON array of media references:
//
//	[{"key":"...","mediaKey":"...","crops":[...],"focalPoint":{"left":0.5,"top":0.5}}]
//
// Older values stored as a comma-separated list of media UDIs
// (umb://media/<32 hex digits>) are accepted as well.
//
// Each reference resolves against the Snapshot honoring the preview flag and
// is composed with an ImageCropperValue restricted to the crops declared by
// the property configuration. Unresolvable references are dropped; in single
// value mode resolution stops at the first resolved reference.
package mediapicker
