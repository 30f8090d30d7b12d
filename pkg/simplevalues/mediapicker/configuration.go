package mediapicker

// Configuration is the property configuration of a media picker.
type Configuration struct {
	Multiple              bool                `json:"multiple"`
	EnableLocalFocalPoint bool                `json:"enableLocalFocalPoint"`
	Crops                 []CropConfiguration `json:"crops,omitempty"`
	ValidationLimit       ValidationLimit     `json:"validationLimit"`
}

// CropConfiguration declares one output crop variant.
type CropConfiguration struct {
	Alias  string `json:"alias"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ValidationLimit bounds the number of picks an editor may make. Conversion
// does not enforce it; stored values outside the limit convert as stored.
type ValidationLimit struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}
