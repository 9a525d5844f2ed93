// File: pkg/storage/errors.go
package storage

import (
	"errors"
	"fmt"
	"stratus/pkg/common"
)

// Bucket error kinds.
var (
	ErrBucketNotFound   = errors.New("bucket not found")
	ErrBucketCreation   = errors.New("bucket creation failed")
	ErrBucketDeletion   = errors.New("bucket deletion failed")
	ErrBucketList       = errors.New("bucket listing failed")
	ErrBucketOpen       = errors.New("bucket open failed")
	ErrBucketCredential = errors.New("credential unavailable")
)

// Blob error kinds.
var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrBlobGet      = errors.New("blob get failed")
	ErrBlobRead     = errors.New("blob has no body to read, fetch it with GetBlob first")
	ErrBlobWrite    = errors.New("blob write failed")
	ErrBlobDeletion = errors.New("blob deletion failed")
	ErrBlobCopy     = errors.New("blob copy failed")
)

// MalformedDestinationMessage is the detail carried by a CopyBlob call whose
// destination is not "{bucket}/{key}".
const MalformedDestinationMessage = "Format blob_destination_path as {bucket}/{blob_path}"

// BucketError reports a failed bucket-level operation.
type BucketError struct {
	// Op is the operation that failed (e.g., "Open", "Create").
	Op string

	// Provider is the backend that produced the error.
	Provider common.Provider

	// Bucket is the bucket name, if applicable.
	Bucket string

	// Detail is the backend's diagnostic text.
	Detail string

	// Err is the error kind, one of the ErrBucket* sentinels.
	Err error

	// Cause is the original backend error, if any.
	Cause error
}

func (e *BucketError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Bucket != "" {
		return fmt.Sprintf("%s: %s: %s", opLabel(e.Provider, e.Op), e.Bucket, msg)
	}
	return fmt.Sprintf("%s: %s", opLabel(e.Provider, e.Op), msg)
}

// Unwrap exposes both the kind and the backend cause to errors.Is/As.
func (e *BucketError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// BlobError reports a failed blob-level operation.
type BlobError struct {
	Op       string
	Provider common.Provider
	Bucket   string
	Key      string
	Detail   string

	// Err is the error kind, one of the ErrBlob* sentinels.
	Err error

	// Cause is the original backend error, if any.
	Cause error
}

func (e *BlobError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Key != "":
		return fmt.Sprintf("%s: %s/%s: %s", opLabel(e.Provider, e.Op), e.Bucket, e.Key, msg)
	case e.Bucket != "":
		return fmt.Sprintf("%s: %s: %s", opLabel(e.Provider, e.Op), e.Bucket, msg)
	default:
		return fmt.Sprintf("%s: %s", opLabel(e.Provider, e.Op), msg)
	}
}

func opLabel(provider common.Provider, op string) string {
	if provider == "" {
		return op
	}
	return string(provider) + " " + op
}

// Unwrap exposes both the kind and the backend cause to errors.Is/As.
func (e *BlobError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// NewBucketError builds a BucketError of the given kind, stringifying cause into Detail.
func NewBucketError(op string, provider common.Provider, bucket string, kind error, cause error) *BucketError {
	e := &BucketError{
		Op:       op,
		Provider: provider,
		Bucket:   bucket,
		Err:      kind,
		Cause:    cause,
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// NewBlobError builds a BlobError of the given kind, stringifying cause into Detail.
func NewBlobError(op string, provider common.Provider, bucket, key string, kind error, cause error) *BlobError {
	e := &BlobError{
		Op:       op,
		Provider: provider,
		Bucket:   bucket,
		Key:      key,
		Err:      kind,
		Cause:    cause,
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}

// MarkNotFound tags a backend error as a missing bucket or key so IsNotFound
// recognises it, while keeping the original error reachable through errors.As.
func MarkNotFound(kind error, err error) error {
	return &notFoundError{kind: kind, err: err}
}

type notFoundError struct {
	kind error
	err  error
}

func (e *notFoundError) Error() string { return e.err.Error() }

func (e *notFoundError) Unwrap() []error { return []error{e.kind, e.err} }

// IsNotFound reports whether err means a bucket or blob does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound) || errors.Is(err, ErrBlobNotFound)
}

// IsBucketNotFound reports whether err means the bucket does not exist.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsBlobNotFound reports whether err means the blob does not exist.
func IsBlobNotFound(err error) bool {
	return errors.Is(err, ErrBlobNotFound)
}

// IsCredentialError reports whether err means the adapter could not obtain its credential.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrBucketCredential)
}

// KindOf returns the taxonomy sentinel carried by err, or nil if err is not a
// BucketError or BlobError.
func KindOf(err error) error {
	var bucketErr *BucketError
	if errors.As(err, &bucketErr) {
		return bucketErr.Err
	}
	var blobErr *BlobError
	if errors.As(err, &blobErr) {
		return blobErr.Err
	}
	return nil
}
