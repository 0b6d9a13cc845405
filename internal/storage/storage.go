package storage

import (
	"context"
	"time"
)

// ObjectStore is the object-storage collaborator. References are opaque
// object names; only signed URLs are ever handed to clients.
type ObjectStore interface {
	Store(ctx context.Context, name string, data []byte, contentType string) (string, error)
	SignedURL(ctx context.Context, reference string, ttl time.Duration) (string, error)
	Download(ctx context.Context, reference string) ([]byte, error)
}
