// Package storage archives uploaded PDFs in an S3-compatible object store (MinIO).
package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pdf-chat-go/internal/config"
	"pdf-chat-go/pkg/log"
)

// MinioArchive stores the original bytes of every upload in one bucket.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

// NewMinioArchive connects to MinIO and makes sure the bucket exists.
func NewMinioArchive(ctx context.Context, cfg config.MinIOConfig) (*MinioArchive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		log.Infof("bucket '%s' does not exist, creating it", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.BucketName, err)
		}
	}
	log.Infof("MinIO archive ready, bucket: %s", cfg.BucketName)
	return &MinioArchive{client: client, bucket: cfg.BucketName}, nil
}

// Archive uploads content under objectName.
func (a *MinioArchive) Archive(ctx context.Context, objectName string, content []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", objectName, err)
	}
	return nil
}
