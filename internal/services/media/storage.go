package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

// S3Storage wraps the minio client for a single private bucket. The
// bucket is created lazily on first use.
type S3Storage struct {
	client *minio.Client
	bucket string

	ensureOnce sync.Once
	ensureErr  error
}

func NewS3Storage(client *minio.Client, bucket string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket}
}

func (s *S3Storage) ensureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = fmt.Errorf("check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.ensureErr = fmt.Errorf("create bucket: %w", err)
		}
	})
	return s.ensureErr
}

func (s *S3Storage) Put(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

func (s *S3Storage) PresignGet(ctx context.Context, objectKey string, ttl time.Duration) (*url.URL, error) {
	if s.client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}

	signed, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, ttl, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("presign object: %w", err)
	}

	return signed, nil
}

func (s *S3Storage) Delete(ctx context.Context, objectKey string) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}

	return nil
}
