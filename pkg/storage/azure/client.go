// File: pkg/storage/azure/client.go
package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"stratus/internal/config"
	"stratus/internal/provider/registry"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.uber.org/zap"
)

func init() {
	registry.RegisterProvider("azure", registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg.Azure != nil && cfg.Azure.Account != ""
}

func initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Buckets, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("Azure configuration missing or incomplete (azure.account required)")
	}
	return NewAzureBuckets(Config{
		Account:   cfg.Azure.Account,
		AccessKey: cfg.Azure.AccessKey,
		Endpoint:  cfg.Azure.Endpoint,
		PageSize:  cfg.List.PageSize,
	}, logger)
}

// AzureBuckets is the container collection of one storage account.
type AzureBuckets struct {
	client   *azblob.Client
	account  string
	pageSize int
	logger   *zap.Logger
}

var _ storage.Buckets = (*AzureBuckets)(nil)
var _ storage.Describer = (*AzureBuckets)(nil)

// NewAzureBuckets authenticates with the account's shared key.
func NewAzureBuckets(cfg Config, logger *zap.Logger) (*AzureBuckets, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.Account, cfg.AccessKey)
	if err != nil {
		return nil, storage.NewBucketError("New", common.Azure, "", storage.ErrBucketCredential, err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(cfg.ServiceURL(), cred, nil)
	if err != nil {
		return nil, storage.NewBucketError("New", common.Azure, "", storage.ErrBucketOpen, err)
	}

	return &AzureBuckets{
		client:   client,
		account:  cfg.Account,
		pageSize: cfg.pageSize(),
		logger:   logger,
	}, nil
}

func (a *AzureBuckets) Provider() common.Provider {
	return common.Azure
}

func (a *AzureBuckets) Scope() string {
	return a.account
}

// Close is a no-op; the pipeline's HTTP client is shared.
func (a *AzureBuckets) Close() error {
	return nil
}

// Tags Blob service not-found errors so storage.IsNotFound recognises them.
// missing is the kind used for a bare HTTP 404 without a service error code.
func classify(err error, missing error) error {
	switch {
	case bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.ContainerBeingDeleted):
		return storage.MarkNotFound(storage.ErrBucketNotFound, err)
	case bloberror.HasCode(err, bloberror.BlobNotFound):
		return storage.MarkNotFound(storage.ErrBlobNotFound, err)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return storage.MarkNotFound(missing, err)
	}
	return err
}
