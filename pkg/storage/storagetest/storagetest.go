// File: pkg/storage/storagetest/storagetest.go

// Package storagetest is a conformance suite for storage adapters.
//
// Every adapter runs the same behavioural checks: unit tests run them against
// the local adapter on an in-memory filesystem, and cloudintegration tests
// run them against real or emulated backends.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    storagetest.Run(t, storagetest.Harness{Buckets: buckets})
//	}
package storagetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratus/pkg/storage"
)

// Harness supplies the collection under test.
type Harness struct {
	Buckets storage.Buckets

	// NewBucketName returns a fresh bucket name the backend accepts.
	// Defaults to "stratus-" plus a random suffix.
	NewBucketName func() string

	// Location is passed to Create.
	Location string

	// DeleteMissingSucceeds pins what DeleteBlob does for an absent key:
	// true when the backend reports success, false when it fails with ErrBlobDeletion.
	DeleteMissingSucceeds bool
}

func (h Harness) bucketName() string {
	if h.NewBucketName != nil {
		return h.NewBucketName()
	}
	return "stratus-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Run executes the suite. Each call creates scratch buckets and removes them on cleanup.
func Run(t *testing.T, h Harness) {
	t.Helper()
	require.NotNil(t, h.Buckets, "harness needs a bucket collection")

	ctx := context.Background()
	name := h.bucketName()
	bucket := createBucket(t, ctx, h, name)

	t.Run("OpenMissingBucket", func(t *testing.T) {
		_, err := h.Buckets.Open(ctx, h.bucketName())
		require.Error(t, err)
		assert.True(t, storage.IsBucketNotFound(err), "got %v", err)
	})

	t.Run("ExistsAgreesWithList", func(t *testing.T) {
		exists, err := h.Buckets.Exists(ctx, name)
		require.NoError(t, err)
		assert.True(t, exists)

		missing := h.bucketName()
		exists, err = h.Buckets.Exists(ctx, missing)
		require.NoError(t, err)
		assert.False(t, exists)

		all, err := h.Buckets.List(ctx)
		require.NoError(t, err)
		names := bucketNames(all)
		assert.Contains(t, names, name)
		assert.NotContains(t, names, missing)
	})

	t.Run("EmptyBucketListing", func(t *testing.T) {
		empty := createBucket(t, ctx, h, h.bucketName())
		blobs, next, err := empty.ListBlobs(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, blobs)
		assert.Equal(t, "", next)
	})

	t.Run("WriteGetReadRoundTrip", func(t *testing.T) {
		content := []byte("hello, storage")
		written, err := bucket.WriteBlob(ctx, "roundtrip/k", content)
		require.NoError(t, err)
		assert.Equal(t, storage.BlobWritten, written.State())
		assert.Equal(t, "roundtrip/k", written.Key)

		got, err := bucket.GetBlob(ctx, "roundtrip/k", "")
		require.NoError(t, err)
		assert.Equal(t, storage.BlobFetched, got.State())

		data, err := got.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("JSONExample", func(t *testing.T) {
		_, err := bucket.WriteBlob(ctx, "new.json", []byte(`{"example": 1}`))
		require.NoError(t, err)

		got, err := bucket.GetBlob(ctx, "new.json", "")
		require.NoError(t, err)
		data, err := got.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"example": 1}`), data)
	})

	t.Run("ZeroLengthWrite", func(t *testing.T) {
		_, err := bucket.WriteBlob(ctx, "empty/blob", nil)
		require.NoError(t, err)

		got, err := bucket.GetBlob(ctx, "empty/blob", "")
		require.NoError(t, err)
		data, err := got.Read(ctx)
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("RangeRead", func(t *testing.T) {
		_, err := bucket.WriteBlob(ctx, "range/digits", []byte("0123456789"))
		require.NoError(t, err)

		got, err := bucket.GetBlob(ctx, "range/digits", "bytes=2-5")
		require.NoError(t, err)
		data, err := got.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("2345"), data)
	})

	t.Run("CopyRoundTrip", func(t *testing.T) {
		content := []byte("copy me")
		_, err := bucket.WriteBlob(ctx, "copy/src", content)
		require.NoError(t, err)

		copied, err := bucket.CopyBlob(ctx, "copy/src", name+"/copy/dst", "")
		require.NoError(t, err)
		assert.Equal(t, "copy/dst", copied.Key)
		assert.Equal(t, name, copied.Bucket)

		got, err := bucket.GetBlob(ctx, "copy/dst", "")
		require.NoError(t, err)
		data, err := got.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("CopyOverridesContentType", func(t *testing.T) {
		_, err := bucket.WriteBlob(ctx, "copy/typed-src", []byte("{}"))
		require.NoError(t, err)

		_, err = bucket.CopyBlob(ctx, "copy/typed-src", name+"/copy/typed-dst", "application/json")
		require.NoError(t, err)

		got, err := bucket.GetBlob(ctx, "copy/typed-dst", "")
		require.NoError(t, err)
		defer got.Close()
		assert.Equal(t, "application/json", got.ContentType)
	})

	t.Run("CopyMalformedDestination", func(t *testing.T) {
		_, err := bucket.CopyBlob(ctx, "copy/src", "no-slash-here", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrBlobCopy), "got %v", err)

		var blobErr *storage.BlobError
		require.True(t, errors.As(err, &blobErr))
		assert.Equal(t, storage.MalformedDestinationMessage, blobErr.Detail)
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		_, err := bucket.WriteBlob(ctx, "delete/k", []byte("bye"))
		require.NoError(t, err)

		deleted, err := bucket.DeleteBlob(ctx, "delete/k")
		require.NoError(t, err)
		assert.True(t, deleted)

		_, err = bucket.GetBlob(ctx, "delete/k", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrBlobGet) || storage.IsNotFound(err), "got %v", err)
	})

	t.Run("DeleteMissingKey", func(t *testing.T) {
		deleted, err := bucket.DeleteBlob(ctx, "delete/never-written")
		if h.DeleteMissingSucceeds {
			require.NoError(t, err)
			assert.True(t, deleted)
			return
		}
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrBlobDeletion), "got %v", err)
		assert.False(t, deleted)
	})

	t.Run("ListedBlobsHaveNoBody", func(t *testing.T) {
		_, err := bucket.WriteBlob(ctx, "listed/a", []byte("a"))
		require.NoError(t, err)

		all, err := storage.ListAll(ctx, bucket)
		require.NoError(t, err)
		require.NotEmpty(t, all)
		for _, b := range all {
			assert.Equal(t, storage.BlobListed, b.State())
			assert.False(t, b.HasBody())
			assert.Empty(t, b.ContentType)
		}

		_, err = all[0].Read(ctx)
		assert.True(t, errors.Is(err, storage.ErrBlobRead), "got %v", err)
	})

	t.Run("ListAllVisitsEveryKey", func(t *testing.T) {
		fresh := createBucket(t, ctx, h, h.bucketName())
		want := []string{"a", "b/c", "b/d", "e/f/g", "z"}
		for _, k := range want {
			_, err := fresh.WriteBlob(ctx, k, []byte(k))
			require.NoError(t, err)
		}

		all, err := storage.ListAll(ctx, fresh)
		require.NoError(t, err)
		got := make([]string, 0, len(all))
		for _, b := range all {
			got = append(got, b.Key)
			assert.Equal(t, int64(len(b.Key)), b.Size)
		}
		sort.Strings(got)
		assert.Equal(t, want, got)
	})

	t.Run("BlobHandleConvenience", func(t *testing.T) {
		_, err := bucket.WriteBlob(ctx, "handle/k", []byte("v1"))
		require.NoError(t, err)

		blob, err := storage.GetBlob(ctx, h.Buckets, name, "handle/k", "")
		require.NoError(t, err)
		data, err := blob.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), data)

		ok, err := blob.Write(ctx, []byte("v2"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, storage.BlobWritten, blob.State())

		ok, err = blob.Copy(ctx, name+"/handle/copied", "")
		require.NoError(t, err)
		assert.True(t, ok)

		copied, err := storage.GetBlob(ctx, h.Buckets, name, "handle/copied", "")
		require.NoError(t, err)
		data, err = copied.Read(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)

		ok, err = blob.Delete(ctx)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = storage.GetBlob(ctx, h.Buckets, name, "handle/k", "")
		assert.Error(t, err)
	})

	t.Run("GetFromMissingBucket", func(t *testing.T) {
		_, err := storage.GetBlob(ctx, h.Buckets, h.bucketName(), "k", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, storage.ErrBlobGet))
		assert.True(t, storage.IsNotFound(err))
	})

	t.Run("DeleteMissingBucket", func(t *testing.T) {
		_, err := h.Buckets.Delete(ctx, h.bucketName())
		require.Error(t, err)
		assert.True(t, storage.IsBucketNotFound(err), "got %v", err)
	})
}

func createBucket(t *testing.T, ctx context.Context, h Harness, name string) storage.Bucket {
	t.Helper()
	bucket, err := h.Buckets.Create(ctx, name, h.Location)
	require.NoError(t, err)
	require.Equal(t, name, bucket.Name())

	t.Cleanup(func() {
		emptyAndDelete(t, context.Background(), h.Buckets, bucket)
	})
	return bucket
}

func emptyAndDelete(t *testing.T, ctx context.Context, buckets storage.Buckets, bucket storage.Bucket) {
	blobs, err := storage.ListAll(ctx, bucket)
	if err != nil {
		t.Logf("cleanup: listing %s: %v", bucket.Name(), err)
		return
	}
	for _, b := range blobs {
		if _, err := bucket.DeleteBlob(ctx, b.Key); err != nil {
			t.Logf("cleanup: deleting %s/%s: %v", bucket.Name(), b.Key, err)
		}
	}
	if _, err := buckets.Delete(ctx, bucket.Name()); err != nil {
		t.Logf("cleanup: deleting bucket %s: %v", bucket.Name(), err)
	}
}

func bucketNames(buckets []storage.Bucket) []string {
	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name())
	}
	return names
}
