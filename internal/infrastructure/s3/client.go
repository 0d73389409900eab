package s3infra

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vehicle-market-api/internal/pkg/id"
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store wraps S3 operations for uploaded images.
type Store struct {
	client        objectAPI
	bucket        string
	publicBaseURL string
}

// NewClient creates an S3 client. When endpoint is set (LocalStack), it overrides
// the endpoint and enables path-style addressing.
func NewClient(awsCfg aws.Config, endpoint string) *s3.Client {
	var opts []func(*s3.Options)
	if endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...)
}

// NewStore creates a Store. Uploaded objects are addressed as publicBaseURL/key,
// or s3://bucket/key when publicBaseURL is empty.
func NewStore(client *s3.Client, bucket, publicBaseURL string) *Store {
	return &Store{client: client, bucket: bucket, publicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}
}

// Upload streams a file to S3 under dir with a fresh unique name and returns its URL.
// contentType may be empty, in which case it is derived from filename.
func (s *Store) Upload(ctx context.Context, dir, filename string, r io.Reader, contentType string) (string, error) {
	key := objectKey(dir, filename)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(filename)
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.URL(key), nil
}

// URL returns the address of key.
func (s *Store) URL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

// DeleteURL removes the object behind a URL produced by this store. URLs pointing
// anywhere else (for example Google profile pictures) are ignored.
func (s *Store) DeleteURL(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

func (s *Store) keyFromURL(url string) (string, bool) {
	prefix := fmt.Sprintf("s3://%s/", s.bucket)
	if s.publicBaseURL != "" {
		prefix = s.publicBaseURL + "/"
	}
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func objectKey(dir, filename string) string {
	return path.Join(dir, id.New()+strings.ToLower(path.Ext(filename)))
}

func detectContentType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
