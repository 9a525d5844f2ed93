// File: pkg/storage/aws/config.go
package aws

import (
	"errors"
	"fmt"
	"stratus/pkg/common"
	"stratus/pkg/storage"
)

// DefaultPageSize is the S3 maximum for ListObjectsV2
const DefaultPageSize = 1000

// Config binds the adapter to one region and one explicit credential.
//
// Either a static key pair or a shared-config profile must be supplied. The
// adapter never falls back to ambient environment credentials on its own.
type Config struct {
	// Region must be a known S3 region unless Endpoint is set.
	Region string

	// Profile names a shared-config profile used when no static keys are given.
	Profile string

	AccessKeyID     string
	SecretAccessKey string

	// Endpoint targets an S3-compatible store instead of AWS.
	Endpoint string

	// ForcePathStyle puts the bucket in the path instead of the host name.
	ForcePathStyle bool

	// PageSize caps ListBlobs pages; zero means DefaultPageSize.
	PageSize int
}

// Validate reports a missing credential as ErrBucketCredential and an
// unrecognised region as ErrBucketNotFound.
func (c Config) Validate() error {
	if (c.AccessKeyID != "") != (c.SecretAccessKey != "") {
		return storage.NewBucketError("New", common.AWS, "", storage.ErrBucketCredential,
			errors.New("both access key ID and secret access key must be provided together"))
	}
	if c.AccessKeyID == "" && c.Profile == "" {
		return storage.NewBucketError("New", common.AWS, "", storage.ErrBucketCredential,
			errors.New("no credential configured, set aws.access_key_id and aws.secret_access_key or aws.profile"))
	}
	if c.Endpoint == "" && !IsKnownRegion(c.Region) {
		return storage.NewBucketError("New", common.AWS, "", storage.ErrBucketNotFound,
			fmt.Errorf("unknown region '%s'", c.Region))
	}
	return nil
}

func (c Config) region() string {
	if c.Region == "" {
		return DefaultRegion
	}
	return c.Region
}

func (c Config) pageSize() int {
	if c.PageSize <= 0 || c.PageSize > DefaultPageSize {
		return DefaultPageSize
	}
	return c.PageSize
}
