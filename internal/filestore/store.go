// Package filestore is the object-storage contract used to publish
// generated modules to a bucket instead of a local directory.
//
// Usage:
//
//	store, err := minio.New(ctx, &filestore.Config{Endpoint: "localhost:9000", ...})
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.PutObject(ctx, "types", "shop.ts", body, filestore.PutOptions{})
package filestore

import (
	"context"
	"io"
)

// Store is implemented by every object storage provider.
type Store interface {
	// Ping verifies the backend is reachable with the configured credentials.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// EnsureBucket creates bucket when it does not exist yet.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject uploads size bytes from r to key inside bucket, replacing
	// any existing object. Pass size -1 when unknown.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error)

	// StatObject returns metadata for key without downloading it. A missing
	// object is reported as errs.ErrKindNotFound.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
