// File: internal/provider/registry/registry_test.go
package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stratus/internal/config"
	"stratus/pkg/storage"
)

func testRegistration() ProviderRegistration {
	return ProviderRegistration{
		ConfigCheck: func(cfg *config.Config) bool { return cfg.Local != nil },
		Initializer: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Buckets, error) {
			return nil, nil
		},
	}
}

func TestRegisterProvider(t *testing.T) {
	RegisterProvider("Registry-Test", testRegistration())

	assert.True(t, IsSupported("registry-test"))
	assert.True(t, IsSupported("REGISTRY-TEST"))
	assert.Contains(t, GetSupportedProviders(), "registry-test")

	reg, ok := GetRegistration("registry-test")
	require.True(t, ok)
	assert.True(t, reg.ConfigCheck(&config.Config{Local: &config.LocalConfig{}}))
	assert.False(t, reg.ConfigCheck(&config.Config{}))

	all := GetAllRegistrations()
	delete(all, "registry-test")
	assert.True(t, IsSupported("registry-test"), "mutating the copy must not touch the registry")
}

func TestRegisterProviderPanics(t *testing.T) {
	RegisterProvider("registry-dup", testRegistration())

	tests := []struct {
		name string
		reg  func()
	}{
		{"duplicate name", func() { RegisterProvider("Registry-Dup", testRegistration()) }},
		{"missing config check", func() {
			RegisterProvider("registry-nocheck", ProviderRegistration{Initializer: testRegistration().Initializer})
		}},
		{"missing initializer", func() {
			RegisterProvider("registry-noinit", ProviderRegistration{ConfigCheck: testRegistration().ConfigCheck})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.reg)
		})
	}
}

func TestGetSupportedProvidersSorted(t *testing.T) {
	RegisterProvider("registry-zz", testRegistration())
	RegisterProvider("registry-aa", testRegistration())

	providers := GetSupportedProviders()
	assert.IsNonDecreasing(t, providers)
}
