package urlstrategy

import (
	"context"
	"fmt"

	"github.com/tendant/simple-values/pkg/simplevalues"
)

// StorageDelegatedStrategy delegates URL generation to the storage backend,
// which returns presigned URLs for the media file
type StorageDelegatedStrategy struct {
	signer Signer
}

// NewStorageDelegatedStrategy creates a new storage-delegated URL strategy
func NewStorageDelegatedStrategy(signer Signer) *StorageDelegatedStrategy {
	return &StorageDelegatedStrategy{signer: signer}
}

// MediaURL asks the storage backend for a presigned URL of the media file
func (s *StorageDelegatedStrategy) MediaURL(ctx context.Context, media *simplevalues.Entity) (string, error) {
	if s.signer == nil {
		return "", fmt.Errorf("storage signer not configured")
	}
	if media.FilePath == "" {
		return "", fmt.Errorf("%w: %s", ErrNoFile, media.Key)
	}
	return s.signer.PresignGet(ctx, media.FilePath)
}
