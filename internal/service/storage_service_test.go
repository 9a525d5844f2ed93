// File: internal/service/storage_service_test.go
package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stratus/internal/config"
	"stratus/internal/provider/factory"
	"stratus/pkg/storage"
	_ "stratus/pkg/storage/local"
)

func newLocalService(t *testing.T, pageSize int) (*StorageService, string) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		Local: &config.LocalConfig{Root: root},
		List:  config.ListConfig{PageSize: pageSize},
	}
	return NewStorageService(factory.NewFactory(cfg, zap.NewNop()), zap.NewNop()), root
}

func TestBucketLifecycle(t *testing.T) {
	svc, root := newLocalService(t, 0)
	ctx := context.Background()

	require.NoError(t, svc.CreateBucket(ctx, "media", "local", ""))
	assert.DirExists(t, filepath.Join(root, "media"))

	info, err := svc.DescribeBucket(ctx, "media", "local")
	require.NoError(t, err)
	assert.Equal(t, "media", info.Name)
	assert.Equal(t, int64(0), info.ObjectCount)

	require.NoError(t, svc.DeleteBucket(ctx, "media", "local"))
	assert.NoDirExists(t, filepath.Join(root, "media"))

	err = svc.DeleteBucket(ctx, "media", "local")
	assert.True(t, storage.IsBucketNotFound(err), "got %v", err)
}

func TestListAllBuckets(t *testing.T) {
	svc, root := newLocalService(t, 0)
	ctx := context.Background()
	for _, name := range []string{"zeta", "alpha"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0755))
	}

	t.Run("sorted listing", func(t *testing.T) {
		listing, err := svc.ListAllBuckets(ctx, []string{"local"})
		require.NoError(t, err)
		require.Len(t, listing, 2)
		assert.Equal(t, BucketListing{Provider: "local", Scope: root, Name: "alpha"}, listing[0])
		assert.Equal(t, "zeta", listing[1].Name)
	})

	t.Run("partial failure keeps results", func(t *testing.T) {
		listing, err := svc.ListAllBuckets(ctx, []string{"local", "gcp"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gcp")
		assert.Len(t, listing, 2)
	})

	t.Run("every provider failing is batched", func(t *testing.T) {
		_, err := svc.ListAllBuckets(ctx, []string{"gcp", "aws"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "total 2 error(s)")
	})

	t.Run("no providers", func(t *testing.T) {
		listing, err := svc.ListAllBuckets(ctx, nil)
		assert.NoError(t, err)
		assert.Nil(t, listing)
	})
}

func TestBlobOperations(t *testing.T) {
	svc, _ := newLocalService(t, 0)
	ctx := context.Background()
	require.NoError(t, svc.CreateBucket(ctx, "media", "local", ""))
	require.NoError(t, svc.CreateBucket(ctx, "archive", "local", ""))

	written, err := svc.WriteBlob(ctx, "media", "local", "new.json", []byte(`{"example": 1}`))
	require.NoError(t, err)
	assert.Equal(t, storage.BlobWritten, written.State())

	blob, content, err := svc.GetBlob(ctx, "media", "local", "new.json", "")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"example": 1}`), content)
	assert.Equal(t, "application/json", blob.ContentType)
	assert.False(t, blob.HasBody())

	_, content, err = svc.GetBlob(ctx, "media", "local", "new.json", "bytes=1-9")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"example"`), content)

	described, err := svc.DescribeBlob(ctx, "media", "local", "new.json")
	require.NoError(t, err)
	assert.Equal(t, int64(14), described.Size)
	assert.Equal(t, "application/json", described.ContentType)
	assert.NotEmpty(t, described.ETag)
	assert.False(t, described.HasBody())
	_, err = described.Read(ctx)
	assert.True(t, errors.Is(err, storage.ErrBlobRead), "got %v", err)

	_, err = svc.DescribeBlob(ctx, "media", "local", "absent.json")
	assert.True(t, storage.IsBlobNotFound(err), "got %v", err)

	copied, err := svc.CopyBlob(ctx, "media", "local", "new.json", "archive/2024/new.json", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "archive", copied.Bucket)
	assert.Equal(t, "text/plain", copied.ContentType)

	_, err = svc.CopyBlob(ctx, "media", "local", "new.json", "no-slash-here", "")
	assert.True(t, errors.Is(err, storage.ErrBlobCopy))

	deleted, err := svc.DeleteBlob(ctx, "media", "local", "new.json")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, _, err = svc.GetBlob(ctx, "media", "local", "new.json", "")
	assert.True(t, storage.IsNotFound(err), "got %v", err)
}

func TestBlobOperationsOnMissingBucket(t *testing.T) {
	svc, _ := newLocalService(t, 0)
	ctx := context.Background()

	_, err := svc.WriteBlob(ctx, "absent", "local", "k", []byte("v"))
	assert.True(t, storage.IsBucketNotFound(err), "got %v", err)

	_, err = svc.ListBlobs(ctx, "absent", "local", BlobQuery{})
	assert.True(t, storage.IsBucketNotFound(err), "got %v", err)
}

func TestListBlobs(t *testing.T) {
	svc, _ := newLocalService(t, 2)
	ctx := context.Background()
	require.NoError(t, svc.CreateBucket(ctx, "media", "local", ""))
	for _, key := range []string{"a.txt", "images/2024/cat.png", "images/dog.png", "notes.md", "z.png"} {
		_, err := svc.WriteBlob(ctx, "media", "local", key, []byte(key))
		require.NoError(t, err)
	}

	t.Run("single page", func(t *testing.T) {
		page, err := svc.ListBlobs(ctx, "media", "local", BlobQuery{})
		require.NoError(t, err)
		assert.Len(t, page.Blobs, 2)
		assert.NotEmpty(t, page.Next)

		next, err := svc.ListBlobs(ctx, "media", "local", BlobQuery{Cursor: page.Next})
		require.NoError(t, err)
		assert.NotEqual(t, page.Blobs[0].Key, next.Blobs[0].Key)
	})

	t.Run("all pages", func(t *testing.T) {
		page, err := svc.ListBlobs(ctx, "media", "local", BlobQuery{All: true})
		require.NoError(t, err)
		assert.Len(t, page.Blobs, 5)
		assert.Empty(t, page.Next)
	})

	t.Run("doublestar match", func(t *testing.T) {
		page, err := svc.ListBlobs(ctx, "media", "local", BlobQuery{All: true, Match: "images/**/*.png"})
		require.NoError(t, err)
		keys := make([]string, 0, len(page.Blobs))
		for _, b := range page.Blobs {
			keys = append(keys, b.Key)
		}
		assert.ElementsMatch(t, []string{"images/2024/cat.png", "images/dog.png"}, keys)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		_, err := svc.ListBlobs(ctx, "media", "local", BlobQuery{Match: "images/[a-"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid match pattern")
	})
}

func TestDescribeUnconfiguredProvider(t *testing.T) {
	svc, _ := newLocalService(t, 0)

	_, err := svc.DescribeBucket(context.Background(), "media", "azure")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error initializing provider")
}
