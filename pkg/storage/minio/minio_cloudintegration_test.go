//go:build cloudintegration

// File: pkg/storage/minio/minio_cloudintegration_test.go
package minio_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stratus/pkg/storage/minio"
	"stratus/pkg/storage/storagetest"
)

// Runs against a local MinIO server, e.g.
// MINIO_ENDPOINT=localhost:9000 MINIO_ACCESS_KEY=minioadmin MINIO_SECRET_KEY=minioadmin go test -tags cloudintegration ./pkg/storage/minio/
func TestConformance_CloudIntegration(t *testing.T) {
	cfg := minio.Config{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		PageSize:  2,
	}
	if cfg.Endpoint == "" {
		t.Skip("MINIO_ENDPOINT is not set")
	}

	buckets, err := minio.NewMinIOBuckets(cfg, zap.NewNop())
	require.NoError(t, err)
	defer buckets.Close()

	if _, err := buckets.List(context.Background()); err != nil {
		t.Skipf("MinIO unavailable: %v", err)
	}

	storagetest.Run(t, storagetest.Harness{
		Buckets:               buckets,
		DeleteMissingSucceeds: true,
	})
}
