package mediapicker

import (
	"github.com/tendant/simple-values/pkg/simplevalues"
)

// MediaKind distinguishes media items that can be cropped from plain files.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindFile  MediaKind = "file"
)

// MediaWithCrops binds a resolved media item to its local crop overlay.
// Converted values are cached and shared by every reader of the scope, so the
// whole value, the slice holding it, its LocalCrops and its Content are
// read-only. Copy before changing anything.
type MediaWithCrops struct {
	Content    *simplevalues.Entity `json:"content"`
	Kind       MediaKind            `json:"kind"`
	LocalCrops ImageCropperValue    `json:"localCrops"`
}

// CropURL returns the crop URL of the local overlay.
func (m *MediaWithCrops) CropURL(alias string) (string, bool) {
	return m.LocalCrops.CropURL(alias)
}

// Factory composes the result for one media type from the resolved entity
// and its configured overlay.
type Factory func(entity *simplevalues.Entity, crops ImageCropperValue) *MediaWithCrops

// ImageFactory keeps crops and focal point.
func ImageFactory(entity *simplevalues.Entity, crops ImageCropperValue) *MediaWithCrops {
	return &MediaWithCrops{Content: entity, Kind: MediaKindImage, LocalCrops: crops}
}

// FileFactory keeps only the media URL; crops do not apply to plain files.
func FileFactory(entity *simplevalues.Entity, crops ImageCropperValue) *MediaWithCrops {
	return &MediaWithCrops{
		Content:    entity,
		Kind:       MediaKindFile,
		LocalCrops: ImageCropperValue{Src: crops.Src, Crops: []ImageCropperCrop{}},
	}
}

// DefaultFactories maps the built-in media types to their factories.
// Media types not listed are composed with ImageFactory.
func DefaultFactories() map[string]Factory {
	return map[string]Factory{
		"Image":                      ImageFactory,
		"File":                       FileFactory,
		"Video":                      FileFactory,
		"Audio":                      FileFactory,
		"Article":                    FileFactory,
		"umbracoMediaVectorGraphics": FileFactory,
	}
}
