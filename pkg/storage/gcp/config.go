// File: pkg/storage/gcp/config.go
package gcp

import (
	"errors"
	"fmt"
	"os"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	"google.golang.org/api/option"
)

// DefaultPageSize is the number of blobs per ListBlobs page when none is configured
const DefaultPageSize = 1000

type Config struct {
	// Project scopes bucket listing and creation.
	Project string

	// CredentialsFile is a service account or authorized-user JSON key.
	// Required unless Endpoint is set.
	CredentialsFile string

	// Endpoint targets an emulator without authentication.
	Endpoint string

	// PageSize caps ListBlobs pages; zero means DefaultPageSize.
	PageSize int
}

// Validate reports a missing credential as ErrBucketCredential and a missing
// project as ErrBucketNotFound.
func (c Config) Validate() error {
	if c.Project == "" {
		return storage.NewBucketError("New", common.GCP, "", storage.ErrBucketNotFound, errors.New("project is not set"))
	}
	if c.Endpoint != "" {
		return nil
	}
	if c.CredentialsFile == "" {
		return storage.NewBucketError("New", common.GCP, "", storage.ErrBucketCredential,
			errors.New("no credential configured, set gcp.credentials_file"))
	}
	if _, err := os.Stat(c.CredentialsFile); err != nil {
		return storage.NewBucketError("New", common.GCP, "", storage.ErrBucketCredential,
			fmt.Errorf("credentials file %s is not readable: %w", c.CredentialsFile, err))
	}
	return nil
}

// Options for the storage client. An emulator endpoint skips authentication.
func (c Config) storageOptions() []option.ClientOption {
	if c.Endpoint != "" {
		return []option.ClientOption{
			option.WithEndpoint(c.Endpoint),
			option.WithoutAuthentication(),
		}
	}
	return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}
}

// Options for the Cloud Monitoring client. The storage endpoint never applies
// here, and without a credentials file the client falls back to application
// default credentials.
func (c Config) monitoringOptions() []option.ClientOption {
	if c.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}
}

func (c Config) pageSize() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}
