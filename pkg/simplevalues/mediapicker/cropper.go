package mediapicker

import (
	"strconv"
	"strings"
)

// FocalPoint is a relative point of interest; both values are in [0,1].
type FocalPoint struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// CropCoordinates are relative crop margins; all values are in [0,1].
type CropCoordinates struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// ImageCropperCrop is one named crop of an image.
type ImageCropperCrop struct {
	Alias       string           `json:"alias"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Coordinates *CropCoordinates `json:"coordinates,omitempty"`
}

// ImageCropperValue is the crop overlay of a picked media item.
type ImageCropperValue struct {
	Src        string             `json:"src"`
	FocalPoint *FocalPoint        `json:"focalPoint,omitempty"`
	Crops      []ImageCropperCrop `json:"crops"`
}

// ApplyConfiguration restricts the crops to the configured variants, in
// configuration order. Dimensions always come from the configuration;
// coordinates come from the stored crop of the same alias, if any. The local
// focal point is dropped unless the configuration enables it.
func (v *ImageCropperValue) ApplyConfiguration(cfg *Configuration) {
	var configured []CropConfiguration
	if cfg != nil {
		configured = cfg.Crops
	}

	crops := make([]ImageCropperCrop, 0, len(configured))
	for _, c := range configured {
		crop := ImageCropperCrop{
			Alias:  c.Alias,
			Width:  c.Width,
			Height: c.Height,
		}
		if stored := v.GetCrop(c.Alias); stored != nil && stored.Coordinates != nil {
			coords := *stored.Coordinates
			crop.Coordinates = &coords
		}
		crops = append(crops, crop)
	}
	v.Crops = crops

	if cfg == nil || !cfg.EnableLocalFocalPoint {
		v.FocalPoint = nil
	}
}

// GetCrop returns the crop with the given alias, or nil.
func (v *ImageCropperValue) GetCrop(alias string) *ImageCropperCrop {
	for i := range v.Crops {
		if strings.EqualFold(v.Crops[i].Alias, alias) {
			return &v.Crops[i]
		}
	}
	return nil
}

// CropURL returns Src with the image processing query for a crop. Explicit
// crop coordinates win over the focal point; without either the image is
// cropped around its center.
func (v *ImageCropperValue) CropURL(alias string) (string, bool) {
	crop := v.GetCrop(alias)
	if crop == nil || v.Src == "" {
		return "", false
	}

	var b strings.Builder
	b.WriteString(v.Src)
	switch {
	case crop.Coordinates != nil:
		c := crop.Coordinates
		b.WriteString("?crop=")
		b.WriteString(strings.Join([]string{formatRatio(c.X1), formatRatio(c.Y1), formatRatio(c.X2), formatRatio(c.Y2)}, ","))
		b.WriteString("&cropmode=percentage")
	case v.FocalPoint != nil:
		b.WriteString("?center=")
		b.WriteString(formatRatio(v.FocalPoint.Top))
		b.WriteString(",")
		b.WriteString(formatRatio(v.FocalPoint.Left))
		b.WriteString("&mode=crop")
	default:
		b.WriteString("?anchor=center&mode=crop")
	}
	if crop.Width > 0 {
		b.WriteString("&width=" + strconv.Itoa(crop.Width))
	}
	if crop.Height > 0 {
		b.WriteString("&height=" + strconv.Itoa(crop.Height))
	}
	return b.String(), true
}

func formatRatio(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
