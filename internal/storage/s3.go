package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the slice of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store reads and writes whole objects addressed as s3://bucket/key.
type S3Store struct {
	API S3API
}

// NewS3Store builds an S3 store on the ambient credential chain.
func NewS3Store(ctx context.Context) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &S3Store{API: s3.NewFromConfig(cfg)}, nil
}

// SplitS3Path splits s3://bucket/key into its bucket and key parts.
func SplitS3Path(path string) (bucket, key string, err error) {
	if !IsS3Path(path) {
		return "", "", fmt.Errorf("not an s3 path: %s", path)
	}
	rest := strings.TrimPrefix(path, s3Scheme)
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 path must be s3://bucket/key, got %s", path)
	}
	return bucket, key, nil
}

// Read fetches the full object body.
func (s *S3Store) Read(ctx context.Context, path string) ([]byte, error) {
	bucket, key, err := SplitS3Path(path)
	if err != nil {
		return nil, err
	}

	out, err := s.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer out.Body.Close() // nolint:errcheck // best-effort cleanup

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Write stores data as the full object body.
func (s *S3Store) Write(ctx context.Context, path string, data []byte) error {
	bucket, key, err := SplitS3Path(path)
	if err != nil {
		return err
	}

	_, err = s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}
