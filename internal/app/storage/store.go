// Package storage adapts S3-compatible object storage (MinIO) for the
// pipeline: upload, time-limited read URLs and idempotent delete, each
// wrapped in the shared retry discipline.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"stream2text/internal/app/config"
	"stream2text/internal/app/retry"
)

// Store wraps a MinIO client scoped to a single bucket.
type Store struct {
	client *minio.Client
	bucket string
	policy retry.Policy
	log    *zap.Logger
}

// New connects to the object store and verifies the bucket, creating
// it when missing. Any failure here is fatal for the run: no item can
// proceed without storage.
func New(ctx context.Context, cfg config.Storage, policy retry.Policy, log *zap.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
		log.Info("created bucket", zap.String("bucket", cfg.Bucket))
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		policy: policy,
		log:    log,
	}, nil
}

// Upload stores the local file under objectName, overwriting any
// existing object with the same name.
func (s *Store) Upload(ctx context.Context, localPath, objectName string) error {
	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("local file not readable: %w", err)
	}

	s.log.Info("uploading object",
		zap.String("local", localPath),
		zap.String("bucket", s.bucket),
		zap.String("object", objectName))

	err := retry.Do(ctx, s.onRetry("upload"), RetryableObjectError, func() error {
		_, err := s.client.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{
			ContentType: "audio/mpeg",
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("upload object %q: %w", objectName, err)
	}
	return nil
}

// PresignedReadURL issues a time-boxed, read-only URL for objectName.
func (s *Store) PresignedReadURL(ctx context.Context, objectName string, validity time.Duration) (string, error) {
	var signed *url.URL
	err := retry.Do(ctx, s.onRetry("presign"), RetryableObjectError, func() error {
		var err error
		signed, err = s.client.PresignedGetObject(ctx, s.bucket, objectName, validity, url.Values{})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", objectName, err)
	}
	return signed.String(), nil
}

// Remove deletes objectName. An object that is already absent counts
// as successfully removed.
func (s *Store) Remove(ctx context.Context, objectName string) error {
	err := retry.Do(ctx, s.onRetry("remove"), RetryableObjectError, func() error {
		return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	})
	if err != nil {
		if IsAbsent(err) {
			s.log.Warn("object already absent, treating delete as success",
				zap.String("object", objectName))
			return nil
		}
		return fmt.Errorf("remove object %q: %w", objectName, err)
	}
	return nil
}

func (s *Store) onRetry(op string) retry.Policy {
	p := s.policy
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		s.log.Warn("retrying storage call",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}
	return p
}

var retryableStorageStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryableObjectError reports whether a storage error is worth
// another attempt: transport-level failures and the transient status
// set are; service errors like missing keys or access denial are not.
func RetryableObjectError(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "" {
		// Not a service response: connection or timeout failure.
		return true
	}
	return retryableStorageStatus[resp.StatusCode]
}

// IsAbsent reports whether err means the object does not exist.
func IsAbsent(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
