// File: pkg/storage/errors_test.go
package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratus/pkg/common"
	"stratus/pkg/storage"
)

func TestBucketErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "with bucket and cause",
			err:  storage.NewBucketError("Open", common.GCP, "media", storage.ErrBucketNotFound, errors.New("404")),
			want: "GCP Open: media: bucket not found: 404",
		},
		{
			name: "without bucket",
			err:  storage.NewBucketError("List", common.AWS, "", storage.ErrBucketList, nil),
			want: "AWS List: bucket listing failed",
		},
		{
			name: "blob with key",
			err:  storage.NewBlobError("Get", common.Azure, "c", "a/b", storage.ErrBlobGet, errors.New("boom")),
			want: "Azure Get: c/a/b: blob get failed: boom",
		},
		{
			name: "blob without key",
			err:  storage.NewBlobError("Read", common.MinIO, "c", "", storage.ErrBlobRead, nil),
			want: "MinIO Read: c: " + storage.ErrBlobRead.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorsExposeKindAndCause(t *testing.T) {
	cause := errors.New("sdk exploded")
	err := fmt.Errorf("wrapped: %w", storage.NewBlobError("Write", common.GCP, "b", "k", storage.ErrBlobWrite, cause))

	assert.True(t, errors.Is(err, storage.ErrBlobWrite))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, storage.ErrBlobCopy))
	assert.Equal(t, storage.ErrBlobWrite, storage.KindOf(err))

	var blobErr *storage.BlobError
	require.True(t, errors.As(err, &blobErr))
	assert.Equal(t, "sdk exploded", blobErr.Detail)
	assert.Equal(t, "k", blobErr.Key)
}

func TestMarkNotFound(t *testing.T) {
	sdkErr := errors.New("NoSuchKey")
	err := storage.NewBlobError("Get", common.AWS, "b", "k", storage.ErrBlobGet, storage.MarkNotFound(storage.ErrBlobNotFound, sdkErr))

	assert.True(t, errors.Is(err, storage.ErrBlobGet))
	assert.True(t, storage.IsNotFound(err))
	assert.True(t, storage.IsBlobNotFound(err))
	assert.False(t, storage.IsBucketNotFound(err))
	assert.True(t, errors.Is(err, sdkErr))
	assert.Equal(t, "NoSuchKey", err.Detail)
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		credential bool
		kind       error
	}{
		{"bucket not found", storage.NewBucketError("Open", common.GCP, "b", storage.ErrBucketNotFound, nil), true, false, storage.ErrBucketNotFound},
		{"credential", storage.NewBucketError("New", common.AWS, "", storage.ErrBucketCredential, nil), false, true, storage.ErrBucketCredential},
		{"plain error", errors.New("nope"), false, false, nil},
		{"nil", nil, false, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, storage.IsNotFound(tt.err))
			assert.Equal(t, tt.credential, storage.IsCredentialError(tt.err))
			assert.Equal(t, tt.kind, storage.KindOf(tt.err))
		})
	}
}
