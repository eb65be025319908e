package interfaces

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned by BlobStore.Get for unknown paths.
var ErrBlobNotFound = errors.New("blob: not found")

// BlobStore persists opaque bytes under a path and reports the public URL.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}
