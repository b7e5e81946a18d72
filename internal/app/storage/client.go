package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"bucketfront/internal/pkg/logx"
)

// s3Client implements Backend against Amazon S3 or an S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	s3Client *s3.Client
	uploader *manager.Uploader
	logger   zerolog.Logger
}

// newS3Client builds the SDK client. Static credentials are used when configured, otherwise the
// default AWS credential chain applies. A custom endpoint switches to path-style addressing.
func newS3Client(ctx context.Context, cfg ServiceConfig) (*s3Client, error) {
	if cfg.S3Region == "" {
		return nil, errors.New("region is required for S3 client")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)))
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
		// S3-compatible stores do not all accept the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &s3Client{
		cfg:      cfg,
		s3Client: client,
		uploader: manager.NewUploader(client),
		logger:   logx.Component("storage"),
	}, nil
}

// Put uploads the object through the transfer manager, which switches to multipart for large bodies.
func (c *s3Client) Put(ctx context.Context, in PutInput) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(in.Bucket),
		Key:    aws.String(in.Key),
		Body:   in.Body,
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.Visibility != "" {
		input.ACL = types.ObjectCannedACL(in.Visibility)
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		c.logger.Debug().Err(err).Str("bucket", in.Bucket).Str("key", in.Key).Msg("S3 put failed")
		return fmt.Errorf("put %s/%s: %w", in.Bucket, in.Key, classify(err))
	}
	return nil
}

// List walks every ListObjectsV2 page of bucket.
func (c *s3Client) List(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	objects := []ObjectInfo{}

	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", bucket, classify(err))
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
	}

	return objects, nil
}

// URL returns https://{bucket}.s3.{region}.amazonaws.com/{key}, or {endpoint}/{bucket}/{key}
// when a custom endpoint is configured.
func (c *s3Client) URL(bucket, key string) string {
	return objectURL(c.cfg, bucket, key)
}

// Delete removes a single object. S3 reports success for keys that do not exist.
func (c *s3Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, classify(err))
	}
	return nil
}

// Copy performs a server-side copy. The source object is left in place.
func (c *s3Client) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := c.s3Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(dstBucket),
		Key:               aws.String(dstKey),
		CopySource:        aws.String(copySource(srcBucket, srcKey)),
		MetadataDirective: types.MetadataDirectiveCopy,
	})
	if err != nil {
		return fmt.Errorf("copy %s/%s to %s/%s: %w", srcBucket, srcKey, dstBucket, dstKey, classify(err))
	}
	return nil
}

// objectURL builds the public object URL without touching the network.
func objectURL(cfg ServiceConfig, bucket, key string) string {
	if cfg.S3Endpoint != "" {
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + bucket + "/" + escapeKey(key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, cfg.S3Region, escapeKey(key))
}

// escapeKey percent-encodes each path segment of key, keeping the separators.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// copySource is the URL-encoded "bucket/key" form CopyObject expects.
func copySource(bucket, key string) string {
	return bucket + "/" + escapeKey(key)
}

// classify maps SDK errors for missing objects or buckets onto ErrNotFound.
func classify(err error) error {
	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nsb) || errors.As(err, &nf) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "InvalidRequest":
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return err
}
