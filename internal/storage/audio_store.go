package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"ucplatform-backend/pkg/logger"
)

// AudioStore holds voicemail audio objects in MinIO. Clients never touch
// the bucket directly, they receive short-lived presigned URLs.
type AudioStore struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
	urlTTL  time.Duration
}

// Config holds object storage connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewAudioStore connects to MinIO and ensures the bucket exists
func NewAudioStore(ctx context.Context, cfg Config) (*AudioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("created audio bucket", zap.String("bucket", cfg.Bucket))
	}

	return &AudioStore{
		client:  client,
		bucket:  cfg.Bucket,
		timeout: 10 * time.Second,
		urlTTL:  15 * time.Minute,
	}, nil
}

// Upload stores an audio object and returns nothing but the error; the
// object key is chosen by the caller
func (s *AudioStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(uploadCtx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload audio: %w", err)
	}

	return nil
}

// PresignedGetURL returns a short-lived download URL for an audio object
func (s *AudioStore) PresignedGetURL(ctx context.Context, objectName string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, s.urlTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign audio url: %w", err)
	}

	return u.String(), nil
}

// Remove deletes an audio object
func (s *AudioStore) Remove(ctx context.Context, objectName string) error {
	removeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.client.RemoveObject(removeCtx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove audio: %w", err)
	}

	return nil
}
