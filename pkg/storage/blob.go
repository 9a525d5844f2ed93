// File: pkg/storage/blob.go
package storage

import (
	"context"
	"errors"
	"io"
	"stratus/pkg/common"
	"time"
)

// BlobState describes how much of a blob has been hydrated.
type BlobState int

const (
	// BlobListed holds listing metadata only (key, etag, size).
	BlobListed BlobState = iota
	// BlobFetched has a body attached by GetBlob.
	BlobFetched
	// BlobWritten holds metadata refreshed by a write or copy.
	BlobWritten
)

func (s BlobState) String() string {
	switch s {
	case BlobListed:
		return "listed"
	case BlobFetched:
		return "fetched"
	case BlobWritten:
		return "written"
	default:
		return "unknown"
	}
}

const readChunkSize = 32 * 1024

// BlobAttrs is the metadata an adapter reports for one object.
type BlobAttrs struct {
	Key string
	// ETag is empty when the backend did not report one.
	ETag string
	// A value of -1 indicates that the size is unknown
	Size         int64
	ContentType  string
	ContentRange string
	LastModified time.Time
}

// Blob is a reference to one object in a bucket.
//
// It carries no authority of its own: Write, Copy and Delete re-open the
// owning bucket through the collection it came from on every call. A Blob is
// never a lock on the remote object, and deleting the object leaves the
// handle stale rather than invalid.
type Blob struct {
	BlobAttrs

	// Bucket is the owning bucket name.
	Bucket string
	// Scope is the owning account, project, region or root.
	Scope    string
	Provider common.Provider

	body    io.ReadCloser
	state   BlobState
	buckets Buckets
}

// NewListedBlob builds a blob from listing metadata.
func NewListedBlob(buckets Buckets, bucket string, attrs BlobAttrs) *Blob {
	return newBlob(buckets, bucket, attrs, nil, BlobListed)
}

// NewFetchedBlob builds a blob with an attached body stream.
func NewFetchedBlob(buckets Buckets, bucket string, attrs BlobAttrs, body io.ReadCloser) *Blob {
	return newBlob(buckets, bucket, attrs, body, BlobFetched)
}

// NewWrittenBlob builds a blob from metadata returned by a write or copy.
func NewWrittenBlob(buckets Buckets, bucket string, attrs BlobAttrs) *Blob {
	return newBlob(buckets, bucket, attrs, nil, BlobWritten)
}

func newBlob(buckets Buckets, bucket string, attrs BlobAttrs, body io.ReadCloser, state BlobState) *Blob {
	b := &Blob{
		BlobAttrs: attrs,
		Bucket:    bucket,
		body:      body,
		state:     state,
		buckets:   buckets,
	}
	if buckets != nil {
		b.Scope = buckets.Scope()
		b.Provider = buckets.Provider()
	}
	return b
}

// State returns the hydration state.
func (b *Blob) State() BlobState {
	return b.state
}

// HasBody reports whether a body stream is attached and not yet drained.
func (b *Blob) HasBody() bool {
	return b.body != nil
}

// Read drains the attached body and returns the full payload.
//
// Chunks are concatenated in arrival order. The body is closed afterwards, so
// a second Read fails with ErrBlobRead just like a blob that came from a
// listing. Obtain a readable blob with GetBlob.
func (b *Blob) Read(ctx context.Context) ([]byte, error) {
	if b.body == nil {
		return nil, NewBlobError("Read", b.Provider, b.Bucket, b.Key, ErrBlobRead, nil)
	}
	body := b.body
	b.body = nil
	defer body.Close()

	var out []byte
	if b.Size > 0 && b.ContentRange == "" {
		out = make([]byte, 0, b.Size)
	}
	buf := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, NewBlobError("Read", b.Provider, b.Bucket, b.Key, ErrBlobRead, err)
		}
		n, err := body.Read(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, NewBlobError("Read", b.Provider, b.Bucket, b.Key, ErrBlobRead, err)
		}
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// Write re-opens the owning bucket and overwrites this blob with content.
// The handle's metadata is refreshed from the write.
func (b *Blob) Write(ctx context.Context, content []byte) (bool, error) {
	bucket, err := b.open(ctx)
	if err != nil {
		return false, NewBlobError("Write", b.Provider, b.Bucket, b.Key, ErrBlobWrite, err)
	}
	written, err := bucket.WriteBlob(ctx, b.Key, content)
	if err != nil {
		return false, err
	}

	b.discardBody()
	b.BlobAttrs = written.BlobAttrs
	b.state = BlobWritten
	return true, nil
}

// Copy copies this blob to destination ("{bucket}/{key}").
func (b *Blob) Copy(ctx context.Context, destination string, contentType string) (bool, error) {
	if _, _, err := ParseDestination(destination); err != nil {
		return false, NewBlobError("Copy", b.Provider, b.Bucket, b.Key, ErrBlobCopy, err)
	}
	bucket, err := b.open(ctx)
	if err != nil {
		return false, NewBlobError("Copy", b.Provider, b.Bucket, b.Key, ErrBlobCopy, err)
	}
	if _, err := bucket.CopyBlob(ctx, b.Key, destination, contentType); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes this blob from its bucket. The handle is left stale.
func (b *Blob) Delete(ctx context.Context) (bool, error) {
	bucket, err := b.open(ctx)
	if err != nil {
		return false, NewBlobError("Delete", b.Provider, b.Bucket, b.Key, ErrBlobDeletion, err)
	}
	b.discardBody()
	return bucket.DeleteBlob(ctx, b.Key)
}

// Close releases an attached body that was never read.
func (b *Blob) Close() error {
	if b.body == nil {
		return nil
	}
	body := b.body
	b.body = nil
	return body.Close()
}

func (b *Blob) discardBody() {
	_ = b.Close()
}

func (b *Blob) open(ctx context.Context) (Bucket, error) {
	if b.buckets == nil {
		return nil, NewBucketError("Open", b.Provider, b.Bucket, ErrBucketOpen, errors.New("blob is not bound to a bucket collection"))
	}
	return b.buckets.Open(ctx, b.Bucket)
}

// GetBlob opens bucket in the given collection and fetches path from it.
func GetBlob(ctx context.Context, buckets Buckets, bucket string, path string, contentRange string) (*Blob, error) {
	handle, err := buckets.Open(ctx, bucket)
	if err != nil {
		return nil, NewBlobError("Get", buckets.Provider(), bucket, path, ErrBlobGet, err)
	}
	return handle.GetBlob(ctx, path, contentRange)
}
