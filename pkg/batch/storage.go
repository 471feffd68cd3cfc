package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Storage writes finished batch files and returns the URL recorded in the
// batch manifest.
type Storage interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// NewStorage resolves a storage root URL. file:// roots and bare paths go to
// the local filesystem, s3://bucket/prefix roots go to S3.
func NewStorage(ctx context.Context, root string) (Storage, error) {
	switch {
	case strings.HasPrefix(root, "s3://"):
		return newS3Storage(ctx, root)
	case strings.HasPrefix(root, "file://"):
		return NewLocalStorage(strings.TrimPrefix(root, "file://"))
	case root != "":
		return NewLocalStorage(root)
	}
	return nil, fmt.Errorf("batch storage root is not set")
}

// LocalStorage writes batch files under a local directory.
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates the directory if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

// Put writes one batch file and returns its file:// URL.
func (s *LocalStorage) Put(_ context.Context, name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write batch file: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve batch file path: %w", err)
	}
	return "file://" + abs, nil
}

// S3Storage uploads batch files to an S3 bucket.
type S3Storage struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

func newS3Storage(ctx context.Context, root string) (*S3Storage, error) {
	trimmed := strings.TrimPrefix(root, "s3://")
	bucket, prefix, _ := strings.Cut(trimmed, "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid s3 root %q: missing bucket", root)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &S3Storage{
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:   bucket,
		prefix:   strings.TrimSuffix(prefix, "/"),
	}, nil
}

// Put uploads one batch file and returns its s3:// URL.
func (s *S3Storage) Put(ctx context.Context, name string, data []byte) (string, error) {
	key := name
	if s.prefix != "" {
		key = s.prefix + "/" + name
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload batch file: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
