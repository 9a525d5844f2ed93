// File: pkg/storage/gcp/client.go
package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"stratus/internal/config"
	"stratus/internal/provider/registry"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

func init() {
	registry.RegisterProvider("gcp", registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
	})
}

// Checks if the GCP configuration block is present and the project ID is set
func isConfigured(cfg *config.Config) bool {
	return cfg.GCP != nil && cfg.GCP.Project != ""
}

// Initializes the GCP bucket collection from the configuration
func initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Buckets, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("GCP configuration missing or incomplete")
	}
	return NewGCPBuckets(ctx, Config{
		Project:         cfg.GCP.Project,
		CredentialsFile: cfg.GCP.CredentialsFile,
		Endpoint:        cfg.GCP.Endpoint,
		PageSize:        cfg.List.PageSize,
	}, logger)
}

// GCPBuckets is the bucket collection of one GCP project.
type GCPBuckets struct {
	client         *gcpstorage.Client
	projectID      string
	monitoringOpts []option.ClientOption
	pageSize       int
	logger         *zap.Logger
}

var _ storage.Buckets = (*GCPBuckets)(nil)
var _ storage.Describer = (*GCPBuckets)(nil)

func NewGCPBuckets(ctx context.Context, cfg Config, logger *zap.Logger) (*GCPBuckets, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := gcpstorage.NewClient(ctx, cfg.storageOptions()...)
	if err != nil {
		return nil, storage.NewBucketError("New", common.GCP, "", storage.ErrBucketCredential, fmt.Errorf("failed to create GCP storage client: %w", err))
	}

	return &GCPBuckets{
		client:         client,
		projectID:      cfg.Project,
		monitoringOpts: cfg.monitoringOptions(),
		pageSize:       cfg.pageSize(),
		logger:         logger,
	}, nil
}

func (g *GCPBuckets) Provider() common.Provider {
	return common.GCP
}

func (g *GCPBuckets) Scope() string {
	return g.projectID
}

func (g *GCPBuckets) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Tags GCS not-found errors so storage.IsNotFound recognises them.
// missing is the kind used for a bare HTTP 404.
func classify(err error, missing error) error {
	switch {
	case errors.Is(err, gcpstorage.ErrBucketNotExist):
		return storage.MarkNotFound(storage.ErrBucketNotFound, err)
	case errors.Is(err, gcpstorage.ErrObjectNotExist):
		return storage.MarkNotFound(storage.ErrBlobNotFound, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return storage.MarkNotFound(missing, err)
	}
	return err
}
