// File: internal/provider/factory/factory.go
package factory

import (
	"context"
	"fmt"
	"sort"
	"stratus/internal/config"
	"stratus/internal/provider/registry"
	"stratus/pkg/storage"
	"strings"

	"go.uber.org/zap"
)

type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Returns a list of providers that are registered and configured
func (f *Factory) GetConfiguredProviders() []string {
	var configuredProviders []string
	allRegistrations := registry.GetAllRegistrations()

	for name, registration := range allRegistrations {
		if registration.ConfigCheck(f.cfg) {
			configuredProviders = append(configuredProviders, name)
		}
	}
	sort.Strings(configuredProviders)
	return configuredProviders
}

// Checks if a specific provider is registered and configured
func (f *Factory) IsConfigured(providerName string) bool {
	registration, exists := registry.GetRegistration(providerName)
	if !exists {
		return false
	}
	return registration.ConfigCheck(f.cfg)
}

// Initializes the bucket collection for the specified provider
func (f *Factory) GetBuckets(ctx context.Context, providerName string) (storage.Buckets, error) {
	normalizedName := strings.ToLower(providerName)
	providerLogger := f.logger.With(zap.String("provider", normalizedName))

	registration, exists := registry.GetRegistration(normalizedName)
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s. Supported providers are: %v", providerName, registry.GetSupportedProviders())
	}

	if !registration.ConfigCheck(f.cfg) {
		return nil, fmt.Errorf("provider '%s' is not configured. Use 'stratus config set %s.<key> <value>' (e.g., 'gcp.project' or 'local.root')", normalizedName, normalizedName)
	}

	buckets, err := registration.Initializer(ctx, f.cfg, providerLogger)
	if err != nil {
		// Keep the taxonomy error intact so callers can still match on it
		return nil, fmt.Errorf("failed to initialize provider %s: %w", normalizedName, err)
	}

	return buckets, nil
}
