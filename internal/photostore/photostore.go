// Package photostore defines where photo bytes are kept. Photo metadata lives
// in the database; implementations only deal with blobs addressed by key.
package photostore

import (
	"context"
	"io"
)

type PhotoStore interface {
	// Save stores the blob under a key derived from name and returns it.
	Save(ctx context.Context, name, mimeType string, r io.Reader) (storageKey string, err error)
	// Get opens a stored blob. A missing key yields domain.ErrNotFound.
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	// Delete removes a blob. Deleting a missing key is a no-op.
	Delete(ctx context.Context, storageKey string) error
}
