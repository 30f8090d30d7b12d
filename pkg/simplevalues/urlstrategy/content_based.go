package urlstrategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/tendant/simple-values/pkg/simplevalues"
)

// ContentBasedStrategy generates URLs keyed by media ID.
// This routes requests through the application server for access control and flexibility
type ContentBasedStrategy struct {
	APIBaseURL string // e.g., "https://api.example.com" or "/api/v1"
}

// NewContentBasedStrategy creates a new content-based URL strategy
func NewContentBasedStrategy(apiBaseURL string) *ContentBasedStrategy {
	return &ContentBasedStrategy{APIBaseURL: strings.TrimSuffix(apiBaseURL, "/")}
}

// MediaURL creates an application-routed URL for the media file
func (s *ContentBasedStrategy) MediaURL(ctx context.Context, media *simplevalues.Entity) (string, error) {
	if s.APIBaseURL == "" {
		return "", fmt.Errorf("API base URL not configured")
	}
	return fmt.Sprintf("%s/media/%s/file", s.APIBaseURL, media.Key.String()), nil
}
