// Package blob holds the BlobStore implementations used for media ingestion.
package blob

import (
	"context"
	"errors"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

var ErrPathInvalid = errors.New("blob: path is invalid")

// Memory keeps blobs in process. URLs are baseURL joined with the path.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

var _ interfaces.BlobStore = (*Memory)(nil)

func NewMemory(baseURL string) *Memory {
	return &Memory{objects: make(map[string][]byte), baseURL: baseURL}
}

func (m *Memory) Put(_ context.Context, p string, data []byte) (string, error) {
	key, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = slices.Clone(data)
	m.mu.Unlock()
	return m.URL(key), nil
}

func (m *Memory) Get(_ context.Context, p string) ([]byte, error) {
	key, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, interfaces.ErrBlobNotFound
	}
	return slices.Clone(data), nil
}

func (m *Memory) Delete(_ context.Context, p string) error {
	key, err := cleanPath(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) URL(p string) string {
	return joinURL(m.baseURL, p)
}

// cleanPath rejects absolute and parent-escaping paths and returns the
// slash-separated key.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrPathInvalid
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrPathInvalid
	}
	return cleaned, nil
}

func joinURL(base, p string) string {
	p = strings.TrimLeft(p, "/")
	base = strings.TrimRight(base, "/")
	if base == "" {
		return "/" + p
	}
	return base + "/" + p
}
