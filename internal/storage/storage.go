package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// FileStorage defines the interface for object storage operations.
// Objects are addressed by bucket and key.
type FileStorage interface {
	// Upload stores body under key, replacing any existing object.
	Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string) error

	// Remove deletes the given keys. Missing keys are not an error.
	Remove(ctx context.Context, bucket string, keys ...string) error

	// PublicURL returns the URL an object is served from. It does not check
	// that the object exists.
	PublicURL(bucket, key string) string
}

// Error constants for storage layer
var (
	ErrEmptyKey = errors.New("object key cannot be empty")
)

// joinURL builds base/bucket/key without doubled slashes.
func joinURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Trim(bucket, "/") + "/" + strings.TrimLeft(key, "/")
}
