// File: pkg/storage/gcp/objects.go
package gcp

import (
	"context"
	"fmt"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

type gcsBucket struct {
	parent *GCPBuckets
	name   string
	handle *gcpstorage.BucketHandle
}

var _ storage.Bucket = (*gcsBucket)(nil)

// Attributes a listing needs; everything else is left out of the response
var listedAttrs = []string{"Name", "Etag", "Size", "Updated"}

func (b *gcsBucket) Name() string {
	return b.name
}

// ListBlobs returns one page via iterator.NewPager. The cursor is the GCS page token.
func (b *gcsBucket) ListBlobs(ctx context.Context, cursor string) ([]*storage.Blob, string, error) {
	query := &gcpstorage.Query{}
	if err := query.SetAttrSelection(listedAttrs); err != nil {
		return nil, "", storage.NewBucketError("ListBlobs", common.GCP, b.name, storage.ErrBucketList, err)
	}

	var page []*gcpstorage.ObjectAttrs
	pager := iterator.NewPager(b.handle.Objects(ctx, query), b.parent.pageSize, cursor)
	next, err := pager.NextPage(&page)
	if err != nil {
		return nil, "", storage.NewBucketError("ListBlobs", common.GCP, b.name, storage.ErrBucketList, classify(err, storage.ErrBucketNotFound))
	}

	blobs := make([]*storage.Blob, 0, len(page))
	for _, attrs := range page {
		blobs = append(blobs, storage.NewListedBlob(b.parent, b.name, mapListedAttrs(attrs)))
	}
	return blobs, next, nil
}

// GetBlob reads the object pinned to the generation whose attributes were fetched.
func (b *gcsBucket) GetBlob(ctx context.Context, key string, contentRange string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting GetBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	obj := b.handle.Object(key)
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, storage.NewBlobError("Get", common.GCP, b.name, key, storage.ErrBlobGet, classify(err, storage.ErrBlobNotFound))
	}
	obj = obj.Generation(attrs.Generation)

	blobAttrs := mapObjectAttrs(attrs)
	var reader *gcpstorage.Reader
	if offset, length, ok := storage.ParseRange(contentRange); ok {
		reader, err = obj.NewRangeReader(ctx, offset, length)
		if err == nil {
			end := offset + reader.Remain() - 1
			blobAttrs.ContentRange = fmt.Sprintf("bytes %d-%d/%d", offset, end, attrs.Size)
		}
	} else {
		reader, err = obj.NewReader(ctx)
	}
	if err != nil {
		return nil, storage.NewBlobError("Get", common.GCP, b.name, key, storage.ErrBlobGet, classify(err, storage.ErrBlobNotFound))
	}

	return storage.NewFetchedBlob(b.parent, b.name, blobAttrs, reader), nil
}

// WriteBlob streams content through an object writer. GCS sniffs the content type.
func (b *gcsBucket) WriteBlob(ctx context.Context, key string, content []byte) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting WriteBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.Int("bytes", len(content)))

	w := b.handle.Object(key).NewWriter(ctx)
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return nil, storage.NewBlobError("Write", common.GCP, b.name, key, storage.ErrBlobWrite, err)
	}
	if err := w.Close(); err != nil {
		return nil, storage.NewBlobError("Write", common.GCP, b.name, key, storage.ErrBlobWrite, classify(err, storage.ErrBucketNotFound))
	}
	return storage.NewWrittenBlob(b.parent, b.name, mapObjectAttrs(w.Attrs())), nil
}

// CopyBlob is a server-side rewrite. A non-empty contentType replaces the destination's type.
func (b *gcsBucket) CopyBlob(ctx context.Context, key string, destination string, contentType string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting CopyBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.String("destination", destination))

	dstBucket, dstKey, err := storage.ParseDestination(destination)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.GCP, b.name, key, storage.ErrBlobCopy, err)
	}

	src := b.handle.Object(key)
	copier := b.parent.client.Bucket(dstBucket).Object(dstKey).CopierFrom(src)
	if contentType != "" {
		copier.ContentType = contentType
	}

	attrs, err := copier.Run(ctx)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.GCP, b.name, key, storage.ErrBlobCopy, classify(err, storage.ErrBlobNotFound))
	}
	return storage.NewWrittenBlob(b.parent, dstBucket, mapObjectAttrs(attrs)), nil
}

// DeleteBlob fails with ErrBlobDeletion when key does not exist.
func (b *gcsBucket) DeleteBlob(ctx context.Context, key string) (bool, error) {
	b.parent.logger.Debug("Starting DeleteBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	if err := b.handle.Object(key).Delete(ctx); err != nil {
		return false, storage.NewBlobError("Delete", common.GCP, b.name, key, storage.ErrBlobDeletion, classify(err, storage.ErrBlobNotFound))
	}
	return true, nil
}
