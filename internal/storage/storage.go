// Package storage reads and writes JSONL blobs behind a small Store
// interface, with local-filesystem and S3 backends selected by path scheme.
package storage

import (
	"context"
	"strings"
)

// Store fetches and writes whole blobs by path.
type Store interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
}

const s3Scheme = "s3://"

// IsS3Path reports whether the path names an S3 object.
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// Router dispatches to the S3 or local backend based on the path scheme.
type Router struct {
	S3    Store
	Local Store
}

func (r *Router) pick(path string) Store {
	if IsS3Path(path) {
		return r.S3
	}
	return r.Local
}

// Read fetches the blob at path from the matching backend.
func (r *Router) Read(ctx context.Context, path string) ([]byte, error) {
	return r.pick(path).Read(ctx, path)
}

// Write stores the blob at path through the matching backend.
func (r *Router) Write(ctx context.Context, path string, data []byte) error {
	return r.pick(path).Write(ctx, path, data)
}
