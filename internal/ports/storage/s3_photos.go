package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoStore stores employee photos and returns their public URL.
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// S3Client is the subset of the S3 API the photo store needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3PhotoStore uploads photos into a single bucket.
type S3PhotoStore struct {
	client  S3Client
	bucket  string
	baseURL string
	region  string
}

// NewS3PhotoStore creates the store. When baseURL is empty, URLs use the
// virtual-hosted S3 form for bucket and region.
func NewS3PhotoStore(client S3Client, bucket, region, baseURL string) *S3PhotoStore {
	return &S3PhotoStore{client: client, bucket: bucket, region: region, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Put uploads body under key in a single blocking call.
func (s *S3PhotoStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s in bucket %s: %w", key, s.bucket, err)
	}
	return s.URL(key), nil
}

// URL is the public address of key.
func (s *S3PhotoStore) URL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
