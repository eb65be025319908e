package noop

import (
	"context"
	"errors"

	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// ErrBlobsDisabled is returned by the no-op blob store on writes.
var ErrBlobsDisabled = errors.New("noop: blob store disabled")

// Blobs returns a blob store that rejects writes. It backs the content
// service when the media provider is "none".
func Blobs() interfaces.BlobStore {
	return blobAdapter{}
}

type blobAdapter struct{}

func (blobAdapter) Put(context.Context, string, []byte) (string, error) {
	return "", ErrBlobsDisabled
}

func (blobAdapter) Get(context.Context, string) ([]byte, error) {
	return nil, interfaces.ErrBlobNotFound
}

func (blobAdapter) Delete(context.Context, string) error {
	return nil
}

func (blobAdapter) URL(string) string {
	return ""
}
