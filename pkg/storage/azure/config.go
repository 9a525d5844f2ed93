// File: pkg/storage/azure/config.go
package azure

import (
	"errors"
	"fmt"
	"regexp"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"strings"
)

// DefaultPageSize is the Blob service maximum for one listing segment
const DefaultPageSize = 5000

var accountNamePattern = regexp.MustCompile(`^[a-z0-9]{3,24}$`)

type Config struct {
	// Account is the storage account name.
	Account string

	// AccessKey is the account's shared key.
	AccessKey string

	// Endpoint overrides the service URL, e.g. Azurite's
	// "http://127.0.0.1:10000/devstoreaccount1/".
	Endpoint string

	// PageSize caps ListBlobs pages; zero means DefaultPageSize.
	PageSize int
}

// Validate reports a malformed account name as ErrBucketNotFound and a
// missing shared key as ErrBucketCredential.
func (c Config) Validate() error {
	if !accountNamePattern.MatchString(c.Account) {
		return storage.NewBucketError("New", common.Azure, "", storage.ErrBucketNotFound,
			fmt.Errorf("'%s' is not a valid storage account name", c.Account))
	}
	if c.AccessKey == "" {
		return storage.NewBucketError("New", common.Azure, "", storage.ErrBucketCredential,
			errors.New("no credential configured, set azure.access_key"))
	}
	return nil
}

// ServiceURL returns the Blob service endpoint for the account
func (c Config) ServiceURL() string {
	if c.Endpoint != "" {
		if !strings.HasSuffix(c.Endpoint, "/") {
			return c.Endpoint + "/"
		}
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", c.Account)
}

func (c Config) pageSize() int {
	if c.PageSize <= 0 || c.PageSize > DefaultPageSize {
		return DefaultPageSize
	}
	return c.PageSize
}
