// File: pkg/storage/fake_test.go
package storage_test

import (
	"context"

	"stratus/pkg/common"
	"stratus/pkg/storage"
)

// fakeBuckets serves canned pages so cursor handling can be exercised
// without a backend.
type fakeBuckets struct {
	buckets map[string]*fakeBucket
	opens   int
}

func newFakeBuckets(buckets ...*fakeBucket) *fakeBuckets {
	f := &fakeBuckets{buckets: make(map[string]*fakeBucket)}
	for _, b := range buckets {
		f.buckets[b.name] = b
	}
	return f
}

func (f *fakeBuckets) Provider() common.Provider { return common.Local }
func (f *fakeBuckets) Scope() string             { return "fake-scope" }
func (f *fakeBuckets) Close() error              { return nil }

func (f *fakeBuckets) Open(ctx context.Context, name string) (storage.Bucket, error) {
	f.opens++
	b, ok := f.buckets[name]
	if !ok {
		return nil, storage.NewBucketError("Open", common.Local, name, storage.ErrBucketNotFound, nil)
	}
	return b, nil
}

func (f *fakeBuckets) Create(ctx context.Context, name, location string) (storage.Bucket, error) {
	b := &fakeBucket{name: name}
	f.buckets[name] = b
	return b, nil
}

func (f *fakeBuckets) List(ctx context.Context) ([]storage.Bucket, error) {
	out := make([]storage.Bucket, 0, len(f.buckets))
	for _, b := range f.buckets {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBuckets) Delete(ctx context.Context, name string) (bool, error) {
	delete(f.buckets, name)
	return true, nil
}

func (f *fakeBuckets) Exists(ctx context.Context, name string) (bool, error) {
	_, ok := f.buckets[name]
	return ok, nil
}

// fakeBucket returns pages[cursor] from ListBlobs.
type fakeBucket struct {
	name  string
	pages map[string]fakePage
}

type fakePage struct {
	keys []string
	next string
}

func (b *fakeBucket) Name() string { return b.name }

func (b *fakeBucket) ListBlobs(ctx context.Context, cursor string) ([]*storage.Blob, string, error) {
	page, ok := b.pages[cursor]
	if !ok {
		return nil, "", storage.NewBucketError("ListBlobs", common.Local, b.name, storage.ErrBucketList, nil)
	}
	blobs := make([]*storage.Blob, 0, len(page.keys))
	for _, k := range page.keys {
		blobs = append(blobs, storage.NewListedBlob(nil, b.name, storage.BlobAttrs{Key: k}))
	}
	return blobs, page.next, nil
}

func (b *fakeBucket) GetBlob(ctx context.Context, path, contentRange string) (*storage.Blob, error) {
	return nil, storage.NewBlobError("Get", common.Local, b.name, path, storage.ErrBlobGet, nil)
}

func (b *fakeBucket) CopyBlob(ctx context.Context, path, destination, contentType string) (*storage.Blob, error) {
	return nil, storage.NewBlobError("Copy", common.Local, b.name, path, storage.ErrBlobCopy, nil)
}

func (b *fakeBucket) WriteBlob(ctx context.Context, name string, content []byte) (*storage.Blob, error) {
	return nil, storage.NewBlobError("Write", common.Local, b.name, name, storage.ErrBlobWrite, nil)
}

func (b *fakeBucket) DeleteBlob(ctx context.Context, path string) (bool, error) {
	return false, storage.NewBlobError("Delete", common.Local, b.name, path, storage.ErrBlobDeletion, nil)
}
