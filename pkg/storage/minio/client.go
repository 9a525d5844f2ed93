// File: pkg/storage/minio/client.go

// Package minio adapts a self-hosted MinIO (or any S3-compatible) endpoint
// to the storage contract through minio-go.
package minio

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"stratus/internal/config"
	"stratus/internal/provider/registry"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

func init() {
	registry.RegisterProvider("minio", registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg.MinIO != nil && cfg.MinIO.Endpoint != ""
}

func initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Buckets, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("MinIO configuration missing or incomplete (minio.endpoint required)")
	}
	return NewMinIOBuckets(Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		UseSSL:    cfg.MinIO.UseSSL,
		Region:    cfg.MinIO.Region,
		PageSize:  cfg.List.PageSize,
	}, logger)
}

// Client is the subset of minio-go the adapter calls.
type Client interface {
	// BucketExists checks if a bucket exists.
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	// MakeBucket creates a new bucket.
	MakeBucket(ctx context.Context, bucketName string, opts miniogo.MakeBucketOptions) error
	// ListBuckets lists every bucket the key can see.
	ListBuckets(ctx context.Context) ([]miniogo.BucketInfo, error)
	// RemoveBucket deletes an empty bucket.
	RemoveBucket(ctx context.Context, bucketName string) error
	GetBucketLocation(ctx context.Context, bucketName string) (string, error)
	GetBucketVersioning(ctx context.Context, bucketName string) (miniogo.BucketVersioningConfiguration, error)
	// ListObjects streams objects in a bucket until the channel closes or ctx is done.
	ListObjects(ctx context.Context, bucketName string, opts miniogo.ListObjectsOptions) <-chan miniogo.ObjectInfo
	StatObject(ctx context.Context, bucketName, objectName string, opts miniogo.StatObjectOptions) (miniogo.ObjectInfo, error)
	// GetObject downloads an object.
	GetObject(ctx context.Context, bucketName, objectName string, opts miniogo.GetObjectOptions) (io.ReadCloser, error)
	// PutObject uploads an object.
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
	CopyObject(ctx context.Context, dst miniogo.CopyDestOptions, src miniogo.CopySrcOptions) (miniogo.UploadInfo, error)
	// RemoveObject deletes an object from a bucket.
	RemoveObject(ctx context.Context, bucketName, objectName string, opts miniogo.RemoveObjectOptions) error
}

// NewClient builds a minio-go client with bounded connection timeouts.
func NewClient(cfg Config) (Client, error) {
	timeout := time.Duration(cfg.timeoutSeconds()) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	client, err := miniogo.New(cfg.host(), &miniogo.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	// The client connects lazily; the first call surfaces an unreachable endpoint.
	return &minioClientWrapper{Client: client}, nil
}

type minioClientWrapper struct {
	*miniogo.Client
}

var _ Client = (*minioClientWrapper)(nil)

func (c *minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts miniogo.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// MinIOBuckets is the bucket collection behind one MinIO endpoint.
type MinIOBuckets struct {
	client   Client
	endpoint string
	region   string
	pageSize int
	logger   *zap.Logger
}

var _ storage.Buckets = (*MinIOBuckets)(nil)
var _ storage.Describer = (*MinIOBuckets)(nil)

func NewMinIOBuckets(cfg Config, logger *zap.Logger) (*MinIOBuckets, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, storage.NewBucketError("New", common.MinIO, "", storage.ErrBucketOpen, err)
	}
	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wraps an existing Client. cfg supplies the scope, region and page size.
func NewWithClient(client Client, cfg Config, logger *zap.Logger) *MinIOBuckets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MinIOBuckets{
		client:   client,
		endpoint: cfg.host(),
		region:   cfg.Region,
		pageSize: cfg.pageSize(),
		logger:   logger,
	}
}

func (m *MinIOBuckets) Provider() common.Provider {
	return common.MinIO
}

func (m *MinIOBuckets) Scope() string {
	return m.endpoint
}

func (m *MinIOBuckets) Close() error {
	return nil
}

// Tags S3 not-found responses so storage.IsNotFound recognises them.
// missing is the kind used for a bare 404 without an error code.
func classify(err error, missing error) error {
	resp := miniogo.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchBucket":
		return storage.MarkNotFound(storage.ErrBucketNotFound, err)
	case "NoSuchKey":
		return storage.MarkNotFound(storage.ErrBlobNotFound, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return storage.MarkNotFound(missing, err)
	}
	return err
}
