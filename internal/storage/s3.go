package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	"github.com/local/pdf2webp/internal/apperr"
	"github.com/local/pdf2webp/internal/config"
)

// S3Client wraps an S3-compatible bucket used for both the source PDF and
// the converted pages.
type S3Client struct {
	client     *s3.Client
	downloader *manager.Downloader
	uploader   *manager.Uploader
	bucketName string
}

// NewS3Client builds a client from the process-wide storage configuration.
// Explicit keys take precedence over the default credential chain, and a
// custom endpoint switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*S3Client, error) {
	region := cfg.Region
	if region == "" && cfg.Endpoint != "" {
		region = "auto" // R2 and most S3-compatible stores ignore it
	}

	var opts []func(*awscfg.LoadOptions) error
	if region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}
	if cfg.StaticCredentials() {
		opts = append(opts, awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		// one attempt per call
		o.RetryMaxAttempts = 1
	})

	log.Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Str("region", region).
		Bool("static_credentials", cfg.StaticCredentials()).
		Msg("S3 client initialized")

	return New(cli, cfg.Bucket), nil
}

// New wraps an existing S3 API client.
func New(cli *s3.Client, bucket string) *S3Client {
	return &S3Client{
		client: cli,
		downloader: manager.NewDownloader(cli, func(d *manager.Downloader) {
			d.Concurrency = 1
		}),
		uploader: manager.NewUploader(cli, func(u *manager.Uploader) {
			u.Concurrency = 1
		}),
		bucketName: bucket,
	}
}

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucketName }

// DownloadToFile streams key into the local file at path.
// A missing object yields *apperr.NotFoundError, any other failure *apperr.StorageError.
func (s *S3Client) DownloadToFile(ctx context.Context, key, path string) error {
	log.Info().Str("bucket", s.bucketName).Str("key", key).Str("path", path).Msg("downloading PDF")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open scratch file: %w", err)
	}
	defer f.Close()

	n, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if IsNotFound(err) {
			return &apperr.NotFoundError{Bucket: s.bucketName, Key: key, Err: err}
		}
		return &apperr.StorageError{Op: "download", Key: key, Err: err}
	}

	log.Debug().Str("key", key).Int64("bytes", n).Msg("downloaded PDF")
	return nil
}

// Put uploads data under key with the given content type.
func (s *S3Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	log.Info().Str("bucket", s.bucketName).Str("key", key).Str("content_type", contentType).Int("size", len(data)).Msg("uploading object")

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("upload failed")
		return &apperr.StorageError{Op: "upload", Key: key, Err: err}
	}
	return nil
}

// ListKeys returns every key under prefix.
func (s *S3Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &apperr.StorageError{Op: "list", Key: prefix, Err: err}
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, *obj.Key)
		}
	}

	return keys, nil
}

// IsNotFound reports whether err is the store's "object does not exist" answer.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}
	return false
}
