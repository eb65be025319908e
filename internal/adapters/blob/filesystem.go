package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Filesystem writes blobs below a root directory.
type Filesystem struct {
	root    string
	baseURL string
}

var _ interfaces.BlobStore = (*Filesystem)(nil)

func NewFilesystem(root, baseURL string) (*Filesystem, error) {
	if root == "" {
		return nil, fmt.Errorf("blob: filesystem root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root %s: %w", root, err)
	}
	return &Filesystem{root: root, baseURL: baseURL}, nil
}

func (f *Filesystem) Put(ctx context.Context, p string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, key, err := f.resolve(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("blob: mkdir for %s: %w", key, err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("blob: write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("blob: commit %s: %w", key, err)
	}
	return f.URL(key), nil
}

func (f *Filesystem) Get(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, _, err := f.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, interfaces.ErrBlobNotFound
	}
	return data, err
}

func (f *Filesystem) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, _, err := f.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *Filesystem) URL(p string) string {
	return joinURL(f.baseURL, p)
}

func (f *Filesystem) resolve(p string) (string, string, error) {
	key, err := cleanPath(p)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(f.root, filepath.FromSlash(key)), key, nil
}
