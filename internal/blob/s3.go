// Package blob provides the external image store backed by any
// S3-compatible object storage (MinIO in development).
package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
)

// Options configures the blob store.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Store uploads and deletes image objects. Objects are addressed by their
// public URL; the object key is recoverable from the URL.
type Store struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

// New builds a Store from static credentials and a custom endpoint.
func New(ctx context.Context, opts Options) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		// MinIO and most self-hosted S3 implementations require path-style
		// addressing.
		o.UsePathStyle = true
	})

	return &Store{
		client:   client,
		bucket:   opts.Bucket,
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
	}, nil
}

// Upload writes content under a fresh date-prefixed key and returns the
// public URL of the stored object.
func (s *Store) Upload(ctx context.Context, content []byte, contentType string) (string, error) {
	key := newObjectKey()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.URLForKey(key), nil
}

// Delete removes the object the URL points at. URLs that do not point into
// this store's bucket are ignored and return nil.
func (s *Store) Delete(ctx context.Context, url string) error {
	key := s.KeyFromURL(url)
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// URLForKey returns the public path-style URL for an object key.
func (s *Store) URLForKey(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
}

// KeyFromURL derives the object key from a public URL, or "" when the URL
// does not point into this store's bucket.
func (s *Store) KeyFromURL(url string) string {
	prefix := s.endpoint + "/" + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	return strings.TrimPrefix(url, prefix)
}

// newObjectKey builds a date-prefixed unique object key, e.g.
// images/2026/09/01/01J8X....
func newObjectKey() string {
	now := time.Now().UTC()
	return fmt.Sprintf("images/%04d/%02d/%02d/%s",
		now.Year(), now.Month(), now.Day(), ulid.Make().String())
}
