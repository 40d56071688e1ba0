// Package objectstore stores attachment files and hands out download URLs.
package objectstore

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned for empty keys or keys escaping the store root.
var ErrInvalidKey = errors.New("invalid object key")

// Store is a flat key/value blob store.
type Store interface {
	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// DownloadURL returns a URL a browser can fetch the object from.
	DownloadURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
