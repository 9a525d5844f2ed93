//go:build cloudintegration

// File: pkg/storage/azure/azure_cloudintegration_test.go
package azure_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stratus/pkg/storage/azure"
	"stratus/pkg/storage/storagetest"
)

// Runs against Azurite or a real account, e.g.
// STRATUS_AZURE_ENDPOINT=http://127.0.0.1:10000/devstoreaccount1/ go test -tags cloudintegration ./pkg/storage/azure/
func TestConformance_CloudIntegration(t *testing.T) {
	cfg := azure.Config{
		Account:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AccessKey: os.Getenv("AZURE_SECRET_ACCESS_KEY"),
		Endpoint:  os.Getenv("STRATUS_AZURE_ENDPOINT"),
		PageSize:  2,
	}
	if cfg.Endpoint != "" && cfg.Account == "" {
		cfg.Account = "devstoreaccount1"
		cfg.AccessKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
	}
	if cfg.Account == "" {
		t.Skip("neither STRATUS_AZURE_ENDPOINT nor AZURE_STORAGE_ACCOUNT is set")
	}

	buckets, err := azure.NewAzureBuckets(cfg, zap.NewNop())
	require.NoError(t, err)
	defer buckets.Close()

	if _, err := buckets.List(context.Background()); err != nil {
		t.Skipf("Blob service unavailable: %v", err)
	}

	storagetest.Run(t, storagetest.Harness{
		Buckets:               buckets,
		DeleteMissingSucceeds: false,
	})
}
