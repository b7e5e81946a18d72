package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when the requested object or bucket does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidRequest is returned when the backend refuses a request as malformed,
	// such as copying an object onto itself.
	ErrInvalidRequest = errors.New("invalid storage request")
)

// Visibility is a canned access-control preset applied to an object at upload time.
type Visibility string

const (
	// VisibilityPrivate leaves the object readable only by the bucket owner.
	VisibilityPrivate Visibility = "private"

	// VisibilityPublicRead makes the object readable by anyone holding its URL.
	VisibilityPublicRead Visibility = "public-read"
)

// Storage drivers selectable through ServiceConfig.Driver.
const (
	DriverS3     = "s3"
	DriverMemory = "memory"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	Driver            string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// PutInput describes a single object write.
type PutInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Visibility  Visibility
}

// ObjectInfo describes an object returned by List.
// ContentType is empty for backends whose listing does not report it (S3).
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Backend is the object-storage capability the file service is built on.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Put stores Body under Bucket/Key with the given content type and visibility.
	Put(ctx context.Context, in PutInput) error

	// List returns every object in bucket.
	List(ctx context.Context, bucket string) ([]ObjectInfo, error)

	// URL returns the retrieval URL of bucket/key. It performs no I/O.
	// An empty key yields the bucket's URL prefix.
	URL(bucket, key string) string

	// Delete removes bucket/key.
	Delete(ctx context.Context, bucket, key string) error

	// Copy duplicates srcBucket/srcKey to dstBucket/dstKey, keeping its metadata.
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
}

// NewStorageService is the factory function for Backend.
// It initializes and returns a concrete implementation based on cfg.Driver; an empty driver means S3.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (Backend, error) {
	switch cfg.Driver {
	case "", DriverS3:
		return newS3Client(ctx, cfg)
	case DriverMemory:
		return NewMemoryBackend(cfg.S3Endpoint), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
