package mediapicker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageCropperValue_ApplyConfiguration(t *testing.T) {
	v := ImageCropperValue{
		Src:        "/media/a.jpg",
		FocalPoint: &FocalPoint{Left: 0.5, Top: 0.5},
		Crops: []ImageCropperCrop{
			{Alias: "square", Width: 1, Height: 1, Coordinates: &CropCoordinates{X1: 0.1, Y1: 0.1, X2: 0.1, Y2: 0.1}},
			{Alias: "removed", Width: 2, Height: 2},
		},
	}

	v.ApplyConfiguration(&Configuration{
		EnableLocalFocalPoint: true,
		Crops: []CropConfiguration{
			{Alias: "wide", Width: 1600, Height: 900},
			{Alias: "Square", Width: 500, Height: 500},
		},
	})

	require.Len(t, v.Crops, 2)
	assert.Equal(t, "wide", v.Crops[0].Alias)
	assert.Nil(t, v.Crops[0].Coordinates)
	assert.Equal(t, "Square", v.Crops[1].Alias)
	assert.Equal(t, 500, v.Crops[1].Width)
	require.NotNil(t, v.Crops[1].Coordinates)
	assert.Equal(t, 0.1, v.Crops[1].Coordinates.X1)
	assert.NotNil(t, v.FocalPoint)
	assert.Nil(t, v.GetCrop("removed"))
}

func TestImageCropperValue_ApplyNilConfiguration(t *testing.T) {
	v := ImageCropperValue{
		FocalPoint: &FocalPoint{Left: 0.5, Top: 0.5},
		Crops:      []ImageCropperCrop{{Alias: "a"}},
	}
	v.ApplyConfiguration(nil)

	assert.Empty(t, v.Crops)
	assert.NotNil(t, v.Crops)
	assert.Nil(t, v.FocalPoint)
}

func TestImageCropperValue_CropURL(t *testing.T) {
	v := ImageCropperValue{
		Src: "/media/a.jpg",
		Crops: []ImageCropperCrop{
			{Alias: "thumb", Width: 100, Height: 80},
			{Alias: "box", Coordinates: &CropCoordinates{X1: 0.25, Y1: 0, X2: 0.25, Y2: 0.5}},
		},
	}

	url, ok := v.CropURL("THUMB")
	require.True(t, ok)
	assert.Equal(t, "/media/a.jpg?anchor=center&mode=crop&width=100&height=80", url)

	url, ok = v.CropURL("box")
	require.True(t, ok)
	assert.Equal(t, "/media/a.jpg?crop=0.25,0,0.25,0.5&cropmode=percentage", url)

	_, ok = v.CropURL("missing")
	assert.False(t, ok)

	v.Src = ""
	_, ok = v.CropURL("thumb")
	assert.False(t, ok)
}
