// File: pkg/storage/azure/objects.go
package azure

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"go.uber.org/zap"
)

const (
	defaultContentType = "application/octet-stream"
	copyPollInterval   = 500 * time.Millisecond
)

type azureBucket struct {
	parent    *AzureBuckets
	name      string
	container *container.Client
}

var _ storage.Bucket = (*azureBucket)(nil)

func (b *azureBucket) Name() string {
	return b.name
}

// ListBlobs returns one flat listing segment. The cursor is the service's marker.
func (b *azureBucket) ListBlobs(ctx context.Context, cursor string) ([]*storage.Blob, string, error) {
	opts := &container.ListBlobsFlatOptions{
		MaxResults: to.Ptr(int32(b.parent.pageSize)),
	}
	if cursor != "" {
		opts.Marker = to.Ptr(cursor)
	}

	pager := b.container.NewListBlobsFlatPager(opts)
	if !pager.More() {
		return []*storage.Blob{}, "", nil
	}
	page, err := pager.NextPage(ctx)
	if err != nil {
		return nil, "", storage.NewBucketError("ListBlobs", common.Azure, b.name, storage.ErrBucketList, classify(err, storage.ErrBucketNotFound))
	}

	var items []*container.BlobItem
	if page.Segment != nil {
		items = page.Segment.BlobItems
	}
	blobs := make([]*storage.Blob, 0, len(items))
	for _, item := range items {
		blobs = append(blobs, storage.NewListedBlob(b.parent, b.name, mapListedItem(item)))
	}
	return blobs, storage.NextCursor(page.NextMarker), nil
}

func (b *azureBucket) GetBlob(ctx context.Context, key string, contentRange string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting GetBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	opts := &blob.DownloadStreamOptions{}
	if offset, length, ok := storage.ParseRange(contentRange); ok {
		opts.Range = downloadRange(offset, length)
	}

	resp, err := b.container.NewBlobClient(key).DownloadStream(ctx, opts)
	if err != nil {
		return nil, storage.NewBlobError("Get", common.Azure, b.name, key, storage.ErrBlobGet, classify(err, storage.ErrBlobNotFound))
	}
	return storage.NewFetchedBlob(b.parent, b.name, mapDownload(key, resp), resp.Body), nil
}

// WriteBlob uploads content as a block blob. The content type follows the key's extension.
func (b *azureBucket) WriteBlob(ctx context.Context, key string, content []byte) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting WriteBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.Int("bytes", len(content)))

	client := b.container.NewBlockBlobClient(key)
	_, err := client.UploadBuffer(ctx, content, &blockblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentTypeFor(key))},
	})
	if err != nil {
		return nil, storage.NewBlobError("Write", common.Azure, b.name, key, storage.ErrBlobWrite, classify(err, storage.ErrBucketNotFound))
	}

	props, err := client.GetProperties(ctx, nil)
	if err != nil {
		return nil, storage.NewBlobError("Write", common.Azure, b.name, key, storage.ErrBlobWrite, classify(err, storage.ErrBlobNotFound))
	}
	return storage.NewWrittenBlob(b.parent, b.name, mapBlobProperties(key, props)), nil
}

// CopyBlob starts a server-side copy and waits for it to leave the pending state.
// A non-empty contentType is applied to the destination afterwards.
func (b *azureBucket) CopyBlob(ctx context.Context, key string, destination string, contentType string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting CopyBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.String("destination", destination))

	dstBucket, dstKey, err := storage.ParseDestination(destination)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.Azure, b.name, key, storage.ErrBlobCopy, err)
	}

	src := b.container.NewBlobClient(key)
	dst := b.parent.container(dstBucket).NewBlobClient(dstKey)

	resp, err := dst.StartCopyFromURL(ctx, src.URL(), nil)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.Azure, b.name, key, storage.ErrBlobCopy, classify(err, storage.ErrBlobNotFound))
	}
	if resp.CopyStatus != nil && *resp.CopyStatus == blob.CopyStatusTypePending {
		if err := waitForCopy(ctx, func(ctx context.Context) (blob.GetPropertiesResponse, error) {
			return dst.GetProperties(ctx, nil)
		}, copyPollInterval); err != nil {
			return nil, storage.NewBlobError("Copy", common.Azure, b.name, key, storage.ErrBlobCopy, err)
		}
	}

	props, err := dst.GetProperties(ctx, nil)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.Azure, b.name, key, storage.ErrBlobCopy, classify(err, storage.ErrBlobNotFound))
	}

	if contentType != "" {
		if _, err := dst.SetHTTPHeaders(ctx, withContentType(props, contentType), nil); err != nil {
			return nil, storage.NewBlobError("Copy", common.Azure, b.name, key, storage.ErrBlobCopy, err)
		}
		props.ContentType = to.Ptr(contentType)
	}
	return storage.NewWrittenBlob(b.parent, dstBucket, mapBlobProperties(dstKey, props)), nil
}

// DeleteBlob fails with ErrBlobDeletion when key does not exist.
func (b *azureBucket) DeleteBlob(ctx context.Context, key string) (bool, error) {
	b.parent.logger.Debug("Starting DeleteBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	if _, err := b.container.NewBlobClient(key).Delete(ctx, nil); err != nil {
		return false, storage.NewBlobError("Delete", common.Azure, b.name, key, storage.ErrBlobDeletion, classify(err, storage.ErrBlobNotFound))
	}
	return true, nil
}

// A Count of zero reads to the end of the blob
func downloadRange(offset, length int64) blob.HTTPRange {
	if length < 0 {
		return blob.HTTPRange{Offset: offset}
	}
	return blob.HTTPRange{Offset: offset, Count: length}
}

// SetHTTPHeaders replaces every header, so the existing ones are carried over
func withContentType(props blob.GetPropertiesResponse, contentType string) blob.HTTPHeaders {
	return blob.HTTPHeaders{
		BlobContentType:        to.Ptr(contentType),
		BlobCacheControl:       props.CacheControl,
		BlobContentDisposition: props.ContentDisposition,
		BlobContentEncoding:    props.ContentEncoding,
		BlobContentLanguage:    props.ContentLanguage,
		BlobContentMD5:         props.ContentMD5,
	}
}

var errCopyFailed = errors.New("server-side copy did not complete")

// Polls until the copy leaves the pending state
func waitForCopy(ctx context.Context, props func(context.Context) (blob.GetPropertiesResponse, error), interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := props(ctx)
		if err != nil {
			return err
		}
		status := blob.CopyStatusTypeSuccess
		if resp.CopyStatus != nil {
			status = *resp.CopyStatus
		}
		switch status {
		case blob.CopyStatusTypeSuccess:
			return nil
		case blob.CopyStatusTypePending:
		default:
			detail := ""
			if resp.CopyStatusDescription != nil {
				detail = *resp.CopyStatusDescription
			}
			return fmt.Errorf("%w: status %s %s", errCopyFailed, status, detail)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return defaultContentType
}
