/*
Package files implements the file service: uploads with generated keys, listing, URL
resolution, deletion and copying, all against a single configured bucket of a storage.Backend.
*/
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"bucketfront/internal/app/storage"
	"bucketfront/internal/pkg/logx"
	"bucketfront/internal/pkg/randx"
)

// ErrInvalidArgument is returned for empty bucket or key arguments.
var ErrInvalidArgument = errors.New("invalid argument")

// Config carries the process-wide settings the service needs.
type Config struct {
	// Bucket is the bucket every operation targets unless a destination bucket is given.
	Bucket string

	// UploadConcurrency bounds how many files of one Upload call are in flight. 1 is sequential.
	UploadConcurrency int

	// Visibility is the canned ACL applied to uploads. Defaults to public-read.
	Visibility storage.Visibility
}

// FileInput is a single file submitted for upload.
type FileInput struct {
	Name        string
	ContentType string

	// Open yields the file content. The service closes it after the upload attempt.
	Open func() (io.ReadCloser, error)
}

// UploadResult is the outcome of uploading one FileInput.
type UploadResult struct {
	Name string
	Key  string
	URL  string
	Err  error
}

// Service forwards file operations to the storage backend.
type Service struct {
	backend storage.Backend
	cfg     Config
}

// NewService creates a Service bound to cfg.Bucket.
func NewService(backend storage.Backend, cfg Config) (*Service, error) {
	if backend == nil {
		return nil, errors.New("storage backend is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket is required", ErrInvalidArgument)
	}
	if cfg.UploadConcurrency < 1 {
		cfg.UploadConcurrency = 1
	}
	if cfg.Visibility == "" {
		cfg.Visibility = storage.VisibilityPublicRead
	}

	return &Service{backend: backend, cfg: cfg}, nil
}

// Bucket returns the configured bucket.
func (s *Service) Bucket() string {
	return s.cfg.Bucket
}

// Upload stores every file under a freshly generated key and returns one result per input,
// in input order. A failing file does not stop the others; its result carries the error.
func (s *Service) Upload(ctx context.Context, files []FileInput) []UploadResult {
	results := make([]UploadResult, len(files))

	var g errgroup.Group
	g.SetLimit(s.cfg.UploadConcurrency)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = s.uploadOne(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *Service) uploadOne(ctx context.Context, f FileInput) UploadResult {
	res := UploadResult{Name: f.Name}
	logger := logx.Ctx(ctx)

	key, err := randx.ObjectKey(f.Name)
	if err != nil {
		res.Err = fmt.Errorf("%q: %w", f.Name, err)
		logger.Warn().Err(err).Str("file_name", f.Name).Msg("File upload rejected")
		return res
	}
	res.Key = key

	if f.Open == nil {
		res.Err = fmt.Errorf("%q: %w: no content", f.Name, ErrInvalidArgument)
		logger.Warn().Err(res.Err).Str("file_name", f.Name).Str("key", key).Msg("File upload rejected")
		return res
	}

	body, err := f.Open()
	if err != nil {
		res.Err = fmt.Errorf("open %q: %w", f.Name, err)
		logger.Error().Err(err).Str("file_name", f.Name).Msg("File upload failed")
		return res
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("file_name", f.Name).Msg("Closing upload stream failed")
		}
	}()

	err = s.backend.Put(ctx, storage.PutInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        body,
		ContentType: f.ContentType,
		Visibility:  s.cfg.Visibility,
	})
	if err != nil {
		res.Err = err
		logger.Error().Err(err).Str("file_name", f.Name).Str("key", key).Msg("File upload failed")
		return res
	}

	res.URL = s.backend.URL(s.cfg.Bucket, key)
	logger.Info().Str("file_name", f.Name).Str("key", key).Msg("File uploaded")
	return res
}

// URLs returns the URLs of the successful results, in order. Failed uploads are skipped,
// so the result may be shorter than the input.
func URLs(results []UploadResult) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// Failed counts the results that carry an error.
func Failed(results []UploadResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// ListKeys returns every key in the configured bucket.
func (s *Service) ListKeys(ctx context.Context) ([]string, error) {
	objects, err := s.backend.List(ctx, s.cfg.Bucket)
	if err != nil {
		logx.Ctx(ctx).Error().Err(err).Str("bucket", s.cfg.Bucket).Msg("Listing files failed")
		return nil, err
	}

	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, o.Key)
	}
	return keys, nil
}

// URL returns the retrieval URL of key. It does not check that the object exists.
func (s *Service) URL(key string) string {
	return s.backend.URL(s.cfg.Bucket, key)
}

// ResolveKey strips the bucket URL prefix from rawURL. ok is false when rawURL does not
// start with the prefix.
func (s *Service) ResolveKey(rawURL string) (key string, ok bool) {
	prefix := s.backend.URL(s.cfg.Bucket, "")
	rest, found := strings.CutPrefix(rawURL, prefix)
	if !found {
		return rawURL, false
	}

	if unescaped, err := url.PathUnescape(rest); err == nil {
		return unescaped, true
	}
	return rest, true
}

// KeyFromURL is ResolveKey without the match flag: a foreign URL comes back unchanged.
func (s *Service) KeyFromURL(rawURL string) string {
	key, _ := s.ResolveKey(rawURL)
	return key
}

// Delete removes key from the configured bucket.
func (s *Service) Delete(ctx context.Context, key string) error {
	logger := logx.Ctx(ctx)

	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidArgument)
	}

	if err := s.backend.Delete(ctx, s.cfg.Bucket, key); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("File delete failed")
		return err
	}

	logger.Info().Str("key", key).Msg("File deleted")
	return nil
}

// Copy copies sourceKey of the configured bucket to destBucket/destKey. The source stays.
func (s *Service) Copy(ctx context.Context, destBucket, sourceKey, destKey string) error {
	logger := logx.Ctx(ctx)

	if destBucket == "" || sourceKey == "" || destKey == "" {
		return fmt.Errorf("%w: destination bucket, source key and destination key are required", ErrInvalidArgument)
	}

	if err := s.backend.Copy(ctx, s.cfg.Bucket, sourceKey, destBucket, destKey); err != nil {
		logger.Error().Err(err).
			Str("source_key", sourceKey).
			Str("dest_bucket", destBucket).
			Str("dest_key", destKey).
			Msg("File copy failed")
		return err
	}

	logger.Info().
		Str("source_key", sourceKey).
		Str("dest_bucket", destBucket).
		Str("dest_key", destKey).
		Msg("File copied")
	return nil
}

// Move copies the object and then deletes the source. The source is kept if the copy fails.
// Moving an object onto its own location does nothing; S3 refuses such a copy.
func (s *Service) Move(ctx context.Context, destBucket, sourceKey, destKey string) error {
	if destBucket == "" || sourceKey == "" || destKey == "" {
		return fmt.Errorf("%w: destination bucket, source key and destination key are required", ErrInvalidArgument)
	}
	if destBucket == s.cfg.Bucket && destKey == sourceKey {
		logx.Ctx(ctx).Debug().Str("key", sourceKey).Msg("Move onto the same location skipped")
		return nil
	}

	if err := s.Copy(ctx, destBucket, sourceKey, destKey); err != nil {
		return err
	}
	return s.Delete(ctx, sourceKey)
}
