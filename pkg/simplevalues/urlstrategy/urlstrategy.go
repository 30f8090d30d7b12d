package urlstrategy

import (
	"context"
	"errors"

	"github.com/tendant/simple-values/pkg/simplevalues"
)

// ErrNoFile indicates the media item has no stored file to link to
var ErrNoFile = errors.New("media item has no file")

// MediaURLStrategy defines how the public URL of a media item is generated
type MediaURLStrategy interface {
	// MediaURL returns the URL of the media item's file
	MediaURL(ctx context.Context, media *simplevalues.Entity) (string, error)
}

// Signer creates time-limited URLs for stored objects
type Signer interface {
	PresignGet(ctx context.Context, objectKey string) (string, error)
}
