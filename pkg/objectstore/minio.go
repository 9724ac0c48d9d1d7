package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/cubestudio/dataset-admin/pkg/config"
)

const MinIOBackend = "minio"

//nolint:gochecknoinits
func init() {
	Register(MinIOBackend, NewMinIO)
}

type MinIO struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

//nolint:ireturn
func NewMinIO(_ context.Context, cfg config.StoreConfig) (Backend, error) {
	if cfg.MinIO.Endpoint == "" {
		return nil, errors.New("store.minio.endpoint must be set")
	}

	if cfg.MinIO.Bucket == "" {
		return nil, errors.New("store.minio.bucket must be set")
	}

	// A fixed region keeps the client from asking the server for the bucket location.
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.Secure,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIO{client: client, bucket: cfg.MinIO.Bucket, expiry: expiry(cfg)}, nil
}

func (m *MinIO) Name() string {
	return MinIOBackend
}

func (m *MinIO) DownloadURLs(ctx context.Context, remotePath string) ([]string, error) {
	// Cancelling stops the listing goroutine when we return early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	urls := make([]string, 0)

	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    objectPrefix(remotePath),
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", remotePath, object.Err)
		}

		if strings.HasSuffix(object.Key, "/") {
			continue
		}

		signed, err := m.client.PresignedGetObject(ctx, m.bucket, object.Key, m.expiry, url.Values{})
		if err != nil {
			return nil, fmt.Errorf("failed to presign %s: %w", object.Key, err)
		}

		urls = append(urls, signed.String())
	}

	return urls, nil
}
