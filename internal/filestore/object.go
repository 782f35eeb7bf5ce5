package filestore

import "time"

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string // hex MD5 for single-part uploads
	LastModified time.Time
}

// PutOptions tune an upload.
type PutOptions struct {
	// ContentType defaults to application/octet-stream.
	ContentType string

	// Metadata is stored as user metadata (x-amz-meta-*).
	Metadata map[string]string
}

// Config locates an S3-compatible endpoint. Only MinIO-style static
// credentials are supported.
type Config struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string // empty for MinIO
}
