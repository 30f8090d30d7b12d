package urlstrategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/tendant/simple-values/pkg/simplevalues"
)

// CDNStrategy generates URLs that point directly at the media file on a CDN
type CDNStrategy struct {
	CDNBaseURL string // e.g., "https://cdn.example.com"
}

// NewCDNStrategy creates a new CDN URL strategy
func NewCDNStrategy(cdnBaseURL string) *CDNStrategy {
	// Ensure cdnBaseURL doesn't have trailing slash
	return &CDNStrategy{CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/")}
}

// MediaURL creates a direct CDN URL for the media file
func (s *CDNStrategy) MediaURL(ctx context.Context, media *simplevalues.Entity) (string, error) {
	if s.CDNBaseURL == "" {
		return "", fmt.Errorf("CDN base URL not configured")
	}
	if media.FilePath == "" {
		return "", fmt.Errorf("%w: %s", ErrNoFile, media.Key)
	}
	return fmt.Sprintf("%s/%s", s.CDNBaseURL, strings.TrimPrefix(media.FilePath, "/")), nil
}
