// File: pkg/storage/minio/config.go
package minio

import (
	"errors"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"strings"
)

const (
	// DefaultPageSize matches the S3 ListObjectsV2 maximum
	DefaultPageSize       = 1000
	defaultTimeoutSeconds = 30
)

type Config struct {
	// Endpoint is host:port, optionally prefixed with a scheme
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Region is sent with MakeBucket when Create gets no location
	Region string
	// PageSize caps ListBlobs pages; zero means DefaultPageSize
	PageSize int
	// TimeoutSeconds bounds connection setup and the wait for response headers
	TimeoutSeconds int
}

// Validate reports a missing endpoint as ErrBucketNotFound and a missing or
// partial key pair as ErrBucketCredential.
func (c Config) Validate() error {
	if c.host() == "" {
		return storage.NewBucketError("New", common.MinIO, "", storage.ErrBucketNotFound,
			errors.New("no endpoint configured, set minio.endpoint"))
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return storage.NewBucketError("New", common.MinIO, "", storage.ErrBucketCredential,
			errors.New("minio.access_key and minio.secret_key must both be set"))
	}
	return nil
}

// MinIO expects the endpoint without a scheme
func (c Config) host() string {
	endpoint := strings.TrimPrefix(c.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimSuffix(endpoint, "/")
}

func (c Config) pageSize() int {
	if c.PageSize <= 0 || c.PageSize > DefaultPageSize {
		return DefaultPageSize
	}
	return c.PageSize
}

func (c Config) timeoutSeconds() int {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds
	}
	return c.TimeoutSeconds
}
