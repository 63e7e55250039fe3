package ports

import (
	"context"
	"io"
)

// ObjectStorage persists avatar images and reports the public URL the stored
// object is reachable at.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error)
}
