// File: pkg/storage/minio/objects.go
package minio

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

type minioBucket struct {
	parent *MinIOBuckets
	name   string
}

var _ storage.Bucket = (*minioBucket)(nil)

func (b *minioBucket) Name() string {
	return b.name
}

// ListBlobs returns one page of a recursive listing. The cursor is the last key
// of the previous page, passed back as StartAfter. One extra entry is read to
// learn whether another page exists.
func (b *minioBucket) ListBlobs(ctx context.Context, cursor string) ([]*storage.Blob, string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := b.parent.pageSize
	opts := miniogo.ListObjectsOptions{
		Recursive:  true,
		StartAfter: cursor,
		MaxKeys:    limit,
	}

	blobs := make([]*storage.Blob, 0, limit)
	more := false
	for obj := range b.parent.client.ListObjects(ctx, b.name, opts) {
		if obj.Err != nil {
			return nil, "", storage.NewBucketError("ListBlobs", common.MinIO, b.name, storage.ErrBucketList, classify(obj.Err, storage.ErrBucketNotFound))
		}
		if len(blobs) == limit {
			more = true
			break
		}
		blobs = append(blobs, storage.NewListedBlob(b.parent, b.name, mapListed(obj)))
	}

	if !more {
		return blobs, "", nil
	}
	return blobs, blobs[len(blobs)-1].Key, nil
}

// GetBlob reads the object pinned to the ETag its metadata was fetched with.
func (b *minioBucket) GetBlob(ctx context.Context, key string, contentRange string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting GetBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	info, err := b.parent.client.StatObject(ctx, b.name, key, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, storage.NewBlobError("Get", common.MinIO, b.name, key, storage.ErrBlobGet, classify(err, storage.ErrBlobNotFound))
	}
	attrs := mapObjectInfo(info)

	opts := miniogo.GetObjectOptions{}
	if info.ETag != "" {
		if err := opts.SetMatchETag(cleanETag(info.ETag)); err != nil {
			return nil, storage.NewBlobError("Get", common.MinIO, b.name, key, storage.ErrBlobGet, err)
		}
	}
	if offset, length, ok := storage.ParseRange(contentRange); ok {
		if offset >= info.Size {
			return nil, storage.NewBlobError("Get", common.MinIO, b.name, key, storage.ErrBlobGet,
				fmt.Errorf("range start %d is beyond object size %d", offset, info.Size))
		}
		end := info.Size - 1
		if length >= 0 && offset+length-1 < end {
			end = offset + length - 1
		}
		if err := opts.SetRange(offset, end); err != nil {
			return nil, storage.NewBlobError("Get", common.MinIO, b.name, key, storage.ErrBlobGet, err)
		}
		attrs.ContentRange = fmt.Sprintf("bytes %d-%d/%d", offset, end, info.Size)
	}

	body, err := b.parent.client.GetObject(ctx, b.name, key, opts)
	if err != nil {
		return nil, storage.NewBlobError("Get", common.MinIO, b.name, key, storage.ErrBlobGet, classify(err, storage.ErrBlobNotFound))
	}
	return storage.NewFetchedBlob(b.parent, b.name, attrs, body), nil
}

// WriteBlob uploads content in one PUT. The content type follows the key's extension.
func (b *minioBucket) WriteBlob(ctx context.Context, key string, content []byte) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting WriteBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.Int("bytes", len(content)))

	contentType := contentTypeFor(key)
	upload, err := b.parent.client.PutObject(ctx, b.name, key, bytes.NewReader(content), int64(len(content)), miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, storage.NewBlobError("Write", common.MinIO, b.name, key, storage.ErrBlobWrite, classify(err, storage.ErrBucketNotFound))
	}

	return storage.NewWrittenBlob(b.parent, b.name, storage.BlobAttrs{
		Key:          key,
		ETag:         cleanETag(upload.ETag),
		Size:         int64(len(content)),
		ContentType:  contentType,
		LastModified: upload.LastModified,
	}), nil
}

// CopyBlob is a server-side copy. A non-empty contentType replaces the
// destination's metadata.
func (b *minioBucket) CopyBlob(ctx context.Context, key string, destination string, contentType string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting CopyBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.String("destination", destination))

	dstBucket, dstKey, err := storage.ParseDestination(destination)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.MinIO, b.name, key, storage.ErrBlobCopy, err)
	}

	dst := miniogo.CopyDestOptions{Bucket: dstBucket, Object: dstKey}
	if contentType != "" {
		dst.ReplaceMetadata = true
		dst.UserMetadata = map[string]string{"Content-Type": contentType}
	}
	src := miniogo.CopySrcOptions{Bucket: b.name, Object: key}

	if _, err := b.parent.client.CopyObject(ctx, dst, src); err != nil {
		return nil, storage.NewBlobError("Copy", common.MinIO, b.name, key, storage.ErrBlobCopy, classify(err, storage.ErrBlobNotFound))
	}

	info, err := b.parent.client.StatObject(ctx, dstBucket, dstKey, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.MinIO, b.name, key, storage.ErrBlobCopy, classify(err, storage.ErrBlobNotFound))
	}
	return storage.NewWrittenBlob(b.parent, dstBucket, mapObjectInfo(info)), nil
}

// DeleteBlob succeeds for an absent key, matching S3.
func (b *minioBucket) DeleteBlob(ctx context.Context, key string) (bool, error) {
	b.parent.logger.Debug("Starting DeleteBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	if err := b.parent.client.RemoveObject(ctx, b.name, key, miniogo.RemoveObjectOptions{}); err != nil {
		return false, storage.NewBlobError("Delete", common.MinIO, b.name, key, storage.ErrBlobDeletion, classify(err, storage.ErrBlobNotFound))
	}
	return true, nil
}

// Listings drop the content type so every adapter reports the same listed shape
func mapListed(obj miniogo.ObjectInfo) storage.BlobAttrs {
	return storage.BlobAttrs{
		Key:          obj.Key,
		ETag:         cleanETag(obj.ETag),
		Size:         obj.Size,
		LastModified: obj.LastModified,
	}
}

func mapObjectInfo(info miniogo.ObjectInfo) storage.BlobAttrs {
	return storage.BlobAttrs{
		Key:          info.Key,
		ETag:         cleanETag(info.ETag),
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}
}

func cleanETag(etag string) string {
	return strings.Trim(etag, `"`)
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return defaultContentType
}
