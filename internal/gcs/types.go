package gcs

import (
	"context"
)

// ObjectStore reads and writes objects addressed by gs:// URIs.
// This interface enables mocking and testing of storage functionality.
type ObjectStore interface {
	// Fetch downloads object bytes from the given storage URI.
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// Put uploads data to the given storage URI.
	Put(ctx context.Context, uri string, data []byte, contentType string) error
}
