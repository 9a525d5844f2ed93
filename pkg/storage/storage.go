// File: pkg/storage/storage.go

// Package storage defines the provider-agnostic contract for object storage.
//
// A Buckets value is the collection of buckets visible to one authenticated
// scope (a GCP project, an AWS region, an Azure storage account, a MinIO
// endpoint or a local root directory). Opening or creating a bucket yields a
// Bucket handle, and blob operations on that handle return *Blob values.
//
// Adapters live in the subpackages (gcp, aws, azure, minio, local). Each one
// owns its SDK client and translates four primitives (list, read one, write
// one, delete one) plus a vendor pagination token into this contract.
//
// Nothing here caches remote state. Every call goes to the backing store
// exactly once; there are no retries and no locks, so sequences such as
// "exists, then create" are check-then-act and may race with other writers.
package storage

import (
	"context"
	"stratus/pkg/common"
)

// Buckets enumerates, opens, creates and deletes buckets for one backend scope.
//
// Implementations wrap a single authenticated client and are safe for
// concurrent use by independent callers.
type Buckets interface {
	// Provider identifies the backend.
	Provider() common.Provider

	// Scope returns the account, project, region or root the collection is bound to.
	Scope() string

	// Open returns a handle for an existing bucket.
	// Fails with ErrBucketNotFound when the bucket is not visible in scope.
	Open(ctx context.Context, name string) (Bucket, error)

	// Create creates a bucket. An empty location lets the backend pick its default.
	Create(ctx context.Context, name string, location string) (Bucket, error)

	// List returns every bucket visible to the credential scope.
	List(ctx context.Context) ([]Bucket, error)

	// Delete removes an existing bucket.
	// Fails with ErrBucketNotFound when absent and ErrBucketDeletion when the backend refuses.
	Delete(ctx context.Context, name string) (bool, error)

	// Exists reports whether the bucket is visible at call time.
	Exists(ctx context.Context, name string) (bool, error)

	// Close releases the underlying client.
	Close() error
}

// Bucket operates on the blobs of one opened bucket.
type Bucket interface {
	// Name returns the bucket name.
	Name() string

	// ListBlobs returns one page of blobs and the cursor for the next page.
	// An empty cursor requests the first page; an empty returned cursor marks the last page.
	// Listed blobs carry key, etag and size only.
	ListBlobs(ctx context.Context, cursor string) ([]*Blob, string, error)

	// GetBlob fetches metadata and attaches the body stream.
	// contentRange uses HTTP range syntax (e.g. "bytes=0-99"); empty fetches the whole object.
	GetBlob(ctx context.Context, path string, contentRange string) (*Blob, error)

	// CopyBlob copies path to destination, formatted as "{bucket}/{key}".
	// A non-empty contentType overrides the type recorded for the destination.
	CopyBlob(ctx context.Context, path string, destination string, contentType string) (*Blob, error)

	// WriteBlob writes content to name. Nil content writes a zero-length object.
	WriteBlob(ctx context.Context, name string, content []byte) (*Blob, error)

	// DeleteBlob removes path. Behaviour for an absent key is backend-defined.
	DeleteBlob(ctx context.Context, path string) (bool, error)
}

// Describer is implemented by collections that can report bucket details.
type Describer interface {
	Describe(ctx context.Context, name string) (BucketInfo, error)
}

// ExistsInListing reports whether name appears in the collection's listing.
//
// This costs one full bucket listing; adapters use it only when the backend
// has no cheaper existence probe.
func ExistsInListing(ctx context.Context, buckets Buckets, name string) (bool, error) {
	all, err := buckets.List(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range all {
		if b.Name() == name {
			return true, nil
		}
	}
	return false, nil
}
