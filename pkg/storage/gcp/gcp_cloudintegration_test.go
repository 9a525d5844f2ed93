//go:build cloudintegration

// File: pkg/storage/gcp/gcp_cloudintegration_test.go
package gcp_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stratus/pkg/storage/gcp"
	"stratus/pkg/storage/storagetest"
)

// Runs against fake-gcs-server or a real project, e.g.
// STRATUS_GCS_ENDPOINT=http://localhost:4443/storage/v1/ go test -tags cloudintegration ./pkg/storage/gcp/
func TestConformance_CloudIntegration(t *testing.T) {
	cfg := gcp.Config{
		Project:         os.Getenv("STRATUS_GCS_PROJECT"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Endpoint:        os.Getenv("STRATUS_GCS_ENDPOINT"),
		PageSize:        2,
	}
	if cfg.Endpoint == "" && cfg.CredentialsFile == "" {
		t.Skip("neither STRATUS_GCS_ENDPOINT nor GOOGLE_APPLICATION_CREDENTIALS is set")
	}
	if cfg.Project == "" {
		cfg.Project = "stratus-test"
	}

	buckets, err := gcp.NewGCPBuckets(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer buckets.Close()

	if _, err := buckets.List(context.Background()); err != nil {
		t.Skipf("GCS unavailable: %v", err)
	}

	storagetest.Run(t, storagetest.Harness{
		Buckets:               buckets,
		DeleteMissingSucceeds: false,
	})
}
