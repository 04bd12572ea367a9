// Package storage keeps uploaded images
package storage

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xtrntr/ihome/internal/booking"
)

// ImageStore saves image bytes and hands out public URLs for them
type ImageStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	URL(key string) string
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalStore writes images to a directory on disk under random names
type LocalStore struct {
	dir       string
	urlPrefix string
	maxBytes  int
}

// NewLocalStore creates dir if needed. maxBytes <= 0 disables the size limit.
func NewLocalStore(dir, urlPrefix string, maxBytes int) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	return &LocalStore{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}, nil
}

// Dir is the directory images are written to
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put stores data and returns its key. Only jpeg, png, gif and webp
// images are accepted.
func (s *LocalStore) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: image is empty", booking.ErrValidation)
	}
	if s.maxBytes > 0 && len(data) > s.maxBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", booking.ErrValidation, s.maxBytes)
	}
	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type", booking.ErrValidation)
	}

	key := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to write image: %w", booking.ErrPersistence, err)
	}
	return key, nil
}

// URL is the public address of the image stored under key
func (s *LocalStore) URL(key string) string {
	return s.urlPrefix + "/" + key
}
