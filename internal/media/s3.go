// Package media provides object storage for uploaded catalog images.
// The backend is any S3-compatible store (AWS S3, MinIO, R2).
package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/ventra/catalog-server/internal/config"
)

// Store abstracts the object store so handlers and services can be tested
// without a live bucket.
type Store interface {
	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// PublicURL returns the URL clients fetch the object from.
	PublicURL(key string) string
}

// S3Store implements Store on an S3-compatible bucket.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewS3Store creates a new S3Store. A non-empty cfg.Endpoint points the
// client at a custom S3-compatible endpoint with path-style addressing.
func NewS3Store(ctx context.Context, cfg config.MediaConfig, logger zerolog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	if cfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		})
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(customResolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	})

	publicBaseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBaseURL == "" {
		if cfg.Endpoint != "" {
			publicBaseURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBaseURL,
		logger:        logger.With().Str("component", "media_store").Logger(),
	}, nil
}

// Put uploads an object to the bucket.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

// Delete removes an object from the bucket.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the public URL for an object key.
func (s *S3Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + key
}
