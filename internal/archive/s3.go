package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink stores one archived batch under key.
type Sink interface {
	Write(ctx context.Context, key string, data []byte) error
}

// S3Sink writes JSONL objects to an S3-compatible bucket.
type S3Sink struct {
	client *s3.Client
	bucket string
}

// NewS3Sink creates an S3 sink. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar).
func NewS3Sink(ctx context.Context, bucket, region, endpoint string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("archive: bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Sink{client: s3.NewFromConfig(cfg, s3opts...), bucket: bucket}, nil
}

// Write uploads data as the object key.
func (s *S3Sink) Write(ctx context.Context, key string, data []byte) error {
	contentType := "application/x-ndjson"
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}
