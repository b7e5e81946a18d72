package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Object is a stored object held by the in-memory backend.
type Object struct {
	Key          string
	Data         []byte
	ContentType  string
	Visibility   Visibility
	LastModified time.Time
}

// MemoryBackend is an in-process Backend used for local development and tests.
// Objects live in a map keyed by "bucket/key"; buckets are created implicitly on first write.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]Object
	cfg     ServiceConfig
}

// NewMemoryBackend creates an empty in-memory backend whose URLs are rooted at baseURL
// using path-style addressing ({baseURL}/{bucket}/{key}).
func NewMemoryBackend(baseURL string) *MemoryBackend {
	return &MemoryBackend{
		objects: make(map[string]Object),
		cfg:     ServiceConfig{S3Endpoint: baseURL},
	}
}

func (m *MemoryBackend) id(bucket, key string) string {
	return bucket + "/" + key
}

// Put reads Body fully and stores it.
func (m *MemoryBackend) Put(ctx context.Context, in PutInput) error {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return fmt.Errorf("put %s/%s: read body: %w", in.Bucket, in.Key, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[m.id(in.Bucket, in.Key)] = Object{
		Key:          in.Key,
		Data:         data,
		ContentType:  in.ContentType,
		Visibility:   in.Visibility,
		LastModified: time.Now(),
	}
	return nil
}

// List returns the objects of bucket sorted by key.
func (m *MemoryBackend) List(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := bucket + "/"
	result := []ObjectInfo{}
	for id, obj := range m.objects {
		if strings.HasPrefix(id, prefix) {
			result = append(result, ObjectInfo{
				Key:          obj.Key,
				Size:         int64(len(obj.Data)),
				ContentType:  obj.ContentType,
				LastModified: obj.LastModified,
			})
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result, nil
}

// URL returns the path-style URL of bucket/key.
func (m *MemoryBackend) URL(bucket, key string) string {
	return objectURL(m.cfg, bucket, key)
}

// Delete removes bucket/key. Missing keys are not an error, matching S3.
func (m *MemoryBackend) Delete(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, m.id(bucket, key))
	return nil
}

// Copy duplicates an object, keeping its content type and visibility.
func (m *MemoryBackend) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if srcBucket == dstBucket && srcKey == dstKey {
		return fmt.Errorf("copy %s/%s onto itself: %w", srcBucket, srcKey, ErrInvalidRequest)
	}

	src, ok := m.objects[m.id(srcBucket, srcKey)]
	if !ok {
		return fmt.Errorf("copy %s/%s: %w", srcBucket, srcKey, ErrNotFound)
	}

	dst := src
	dst.Key = dstKey
	dst.Data = bytes.Clone(src.Data)
	dst.LastModified = time.Now()
	m.objects[m.id(dstBucket, dstKey)] = dst
	return nil
}

// Get returns a copy of the stored object.
func (m *MemoryBackend) Get(ctx context.Context, bucket, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[m.id(bucket, key)]
	if !ok {
		return Object{}, fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
	}
	obj.Data = bytes.Clone(obj.Data)
	return obj, nil
}
