package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	cfg "github.com/filesmanager/filesmanager/internal/config"
)

var (
	ErrNotFound    = errors.New("content not found")
	ErrInvalidPath = errors.New("invalid storage path")
)

// Storage defines the interface for file content operations. Paths are
// driver-relative keys; Save overwrites, so repeating a write is safe.
type Storage interface {
	// Save stores content at the given path, creating parents as needed
	Save(ctx context.Context, path string, content io.Reader) error

	// Open returns the content at path or ErrNotFound
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the content at path
	Delete(ctx context.Context, path string) error
}

// New builds the storage driver selected in config.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "", "local":
		return NewLocalStorage(c.FolderPath)
	case "s3":
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

// ReadAll opens path and reads it fully.
func ReadAll(ctx context.Context, s Storage, path string) ([]byte, error) {
	rc, err := s.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
