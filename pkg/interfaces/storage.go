package interfaces

import "context"

// ArtifactStore is the object-storage contract the runtime depends on.
// Implementations retry transient failures with bounded exponential backoff
// and return an unavailable-kind error once retries are exhausted.
type ArtifactStore interface {
	// Exists reports whether an object exists. A missing object is not an
	// error.
	Exists(ctx context.Context, key string) (bool, error)

	// PutObject writes raw bytes under key.
	PutObject(ctx context.Context, key string, data []byte, metadata map[string]string) error

	// GetObject reads the raw bytes stored under key. Returns an error with
	// code OBJECT_NOT_FOUND for missing keys.
	GetObject(ctx context.Context, key string) ([]byte, error)

	// PutJSON marshals v and writes it under key.
	PutJSON(ctx context.Context, key string, v any) error

	// GetJSON reads key and unmarshals into v.
	GetJSON(ctx context.Context, key string, v any) error

	// ListKeys returns all keys with the given prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// URI returns the canonical location string for a key, e.g.
	// s3://bucket/key or file:///path/key.
	URI(key string) string
}
