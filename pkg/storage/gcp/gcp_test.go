// File: pkg/storage/gcp/gcp_test.go
package gcp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	gcpstorage "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"stratus/internal/config"
	"stratus/pkg/common"
	"stratus/pkg/storage"
)

func TestConfigValidate(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(keyFile, []byte(`{}`), 0600))

	tests := []struct {
		name   string
		config Config
		kind   error
	}{
		{"credentials file", Config{Project: "p", CredentialsFile: keyFile}, nil},
		{"emulator needs no credential", Config{Project: "p", Endpoint: "http://localhost:4443/storage/v1/"}, nil},
		{"no project", Config{CredentialsFile: keyFile}, storage.ErrBucketNotFound},
		{"no credential", Config{Project: "p"}, storage.ErrBucketCredential},
		{"missing credentials file", Config{Project: "p", CredentialsFile: filepath.Join(t.TempDir(), "absent.json")}, storage.ErrBucketCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestConfigPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Config{}.pageSize())
	assert.Equal(t, 5, Config{PageSize: 5}.pageSize())
}

func TestClientOptions(t *testing.T) {
	const endpoint = "http://localhost:4443/storage/v1/"

	t.Run("emulator options stay on the storage client", func(t *testing.T) {
		cfg := Config{Project: "p", Endpoint: endpoint}
		assert.Equal(t, []option.ClientOption{
			option.WithEndpoint(endpoint),
			option.WithoutAuthentication(),
		}, cfg.storageOptions())
		assert.Empty(t, cfg.monitoringOptions())
	})

	t.Run("emulator with a credentials file", func(t *testing.T) {
		cfg := Config{Project: "p", Endpoint: endpoint, CredentialsFile: "key.json"}
		assert.Equal(t, []option.ClientOption{option.WithCredentialsFile("key.json")}, cfg.monitoringOptions())
	})

	t.Run("credentials file feeds both clients", func(t *testing.T) {
		cfg := Config{Project: "p", CredentialsFile: "key.json"}
		want := []option.ClientOption{option.WithCredentialsFile("key.json")}
		assert.Equal(t, want, cfg.storageOptions())
		assert.Equal(t, want, cfg.monitoringOptions())
	})
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, isConfigured(&config.Config{}))
	assert.False(t, isConfigured(&config.Config{GCP: &config.GCPConfig{}}))
	assert.True(t, isConfigured(&config.Config{GCP: &config.GCPConfig{Project: "p"}}))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		missing error
		want    error
	}{
		{"bucket not exist", gcpstorage.ErrBucketNotExist, storage.ErrBlobNotFound, storage.ErrBucketNotFound},
		{"object not exist", fmt.Errorf("reader: %w", gcpstorage.ErrObjectNotExist), storage.ErrBucketNotFound, storage.ErrBlobNotFound},
		{"bare 404", &googleapi.Error{Code: 404}, storage.ErrBlobNotFound, storage.ErrBlobNotFound},
		{"forbidden", &googleapi.Error{Code: 403}, storage.ErrBlobNotFound, nil},
		{"conflict", &googleapi.Error{Code: 409}, storage.ErrBucketNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, tt.missing)
			assert.True(t, errors.Is(got, tt.err))
			if tt.want == nil {
				assert.False(t, storage.IsNotFound(got))
				return
			}
			assert.True(t, errors.Is(got, tt.want))
		})
	}
}

func TestMapBucketInfo(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	attrs := &gcpstorage.BucketAttrs{
		Name:                   "media",
		Location:               "EU",
		StorageClass:           "STANDARD",
		Created:                created,
		Labels:                 map[string]string{"env": "prod"},
		VersioningEnabled:      true,
		PublicAccessPrevention: gcpstorage.PublicAccessPreventionEnforced,
		Encryption:             &gcpstorage.BucketEncryption{DefaultKMSKeyName: "projects/p/keys/k"},
	}

	info := mapBucketInfo(attrs, "proj", 2048)
	assert.Equal(t, "media", info.Name)
	assert.Equal(t, common.GCP, info.Provider)
	assert.Equal(t, "proj", info.Scope)
	assert.Equal(t, "EU", info.Location)
	assert.Equal(t, created, info.CreatedAt)
	assert.Equal(t, int64(2048), info.UsageBytes)
	assert.Equal(t, int64(-1), info.ObjectCount)
	assert.True(t, info.Versioning.Enabled)
	assert.Equal(t, "Enforced", info.PublicAccess)
	assert.Equal(t, "projects/p/keys/k", info.Encryption)
}

func TestMapBucketEncryption(t *testing.T) {
	assert.Equal(t, "Google-managed", mapBucketEncryption(nil))
	assert.Equal(t, "Google-managed", mapBucketEncryption(&gcpstorage.BucketEncryption{}))
	assert.Equal(t, "k", mapBucketEncryption(&gcpstorage.BucketEncryption{DefaultKMSKeyName: "k"}))
}

func TestMapPublicAccessPrevention(t *testing.T) {
	assert.Equal(t, "Enforced", mapPublicAccessPrevention(gcpstorage.PublicAccessPreventionEnforced))
	assert.Equal(t, "Inherited", mapPublicAccessPrevention(gcpstorage.PublicAccessPreventionInherited))
	assert.Equal(t, "Unknown", mapPublicAccessPrevention(gcpstorage.PublicAccessPreventionUnknown))
}

func TestMapObjectAttrs(t *testing.T) {
	updated := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	attrs := &gcpstorage.ObjectAttrs{
		Name:        "a/b.json",
		Etag:        "CJ+6",
		Size:        12,
		ContentType: "application/json",
		Updated:     updated,
	}

	listed := mapListedAttrs(attrs)
	assert.Equal(t, "a/b.json", listed.Key)
	assert.Equal(t, int64(12), listed.Size)
	assert.Empty(t, listed.ContentType, "listings never carry a content type")

	full := mapObjectAttrs(attrs)
	assert.Equal(t, "application/json", full.ContentType)
	assert.Equal(t, updated, full.LastModified)

	assert.Equal(t, int64(-1), mapObjectAttrs(nil).Size)
}

func TestUsageRequest(t *testing.T) {
	now := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)
	req := usageRequest("proj", "media", now)

	assert.Equal(t, "projects/proj", req.Name)
	assert.Contains(t, req.Filter, `resource.labels.bucket_name="media"`)
	assert.Contains(t, req.Filter, totalBytesMetric)
	assert.Equal(t, now.Add(-metricTimeWindow), req.Interval.StartTime.AsTime())
	assert.Equal(t, monitoringpb.Aggregation_REDUCE_SUM, req.Aggregation.CrossSeriesReducer)
}

func TestExtractUsageValue(t *testing.T) {
	tests := []struct {
		name  string
		value *monitoringpb.TypedValue
		want  int64
	}{
		{"nil", nil, 0},
		{"double rounds", &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: 1023.6}}, 1024},
		{"int64", &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_Int64Value{Int64Value: 77}}, 77},
		{"unsupported", &monitoringpb.TypedValue{Value: &monitoringpb.TypedValue_StringValue{StringValue: "x"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUsageValue(tt.value))
		})
	}
}
