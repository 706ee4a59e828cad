// Package objectstore reads catalog documents from S3-compatible object storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidURL = errors.New("invalid object url")
)

type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	ContentType  string
}

type Store interface {
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	Head(ctx context.Context, key string) (*ObjectInfo, error)
}

// URLScheme prefixes object locations given in place of a local path.
const URLScheme = "s3://"

// IsURL reports whether location names an object rather than a local file.
func IsURL(location string) bool {
	return strings.HasPrefix(location, URLScheme)
}

// ParseURL splits s3://bucket/key into its bucket and key.
func ParseURL(location string) (bucket, key string, err error) {
	if !IsURL(location) {
		return "", "", fmt.Errorf("%w: %q lacks %s prefix", ErrInvalidURL, location, URLScheme)
	}
	rest := strings.TrimPrefix(location, URLScheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q must be %sbucket/key", ErrInvalidURL, location, URLScheme)
	}
	return bucket, key, nil
}
