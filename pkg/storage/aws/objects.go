// File: pkg/storage/aws/objects.go
package aws

import (
	"bytes"
	"context"
	"net/url"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"strconv"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

type s3Bucket struct {
	parent *AWSBuckets
	name   string
}

var _ storage.Bucket = (*s3Bucket)(nil)

func (b *s3Bucket) Name() string {
	return b.name
}

// ListBlobs wraps ListObjectsV2. The cursor is the S3 continuation token.
func (b *s3Bucket) ListBlobs(ctx context.Context, cursor string) ([]*storage.Blob, string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  awssdk.String(b.name),
		MaxKeys: awssdk.Int32(int32(b.parent.pageSize)),
	}
	if cursor != "" {
		input.ContinuationToken = awssdk.String(cursor)
	}

	out, err := b.parent.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, "", storage.NewBucketError("ListBlobs", common.AWS, b.name, storage.ErrBucketList, classify(err, storage.ErrBucketNotFound))
	}

	blobs := make([]*storage.Blob, 0, len(out.Contents))
	for _, obj := range out.Contents {
		blobs = append(blobs, storage.NewListedBlob(b.parent, b.name, storage.BlobAttrs{
			Key:          awssdk.ToString(obj.Key),
			ETag:         cleanETag(awssdk.ToString(obj.ETag)),
			Size:         awssdk.ToInt64(obj.Size),
			LastModified: awssdk.ToTime(obj.LastModified),
		}))
	}

	next := ""
	if awssdk.ToBool(out.IsTruncated) {
		next = storage.NextCursor(out.NextContinuationToken)
	}
	return blobs, next, nil
}

func (b *s3Bucket) GetBlob(ctx context.Context, key string, contentRange string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting GetBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	input := &s3.GetObjectInput{
		Bucket: awssdk.String(b.name),
		Key:    awssdk.String(key),
	}
	if offset, length, ok := storage.ParseRange(contentRange); ok {
		input.Range = awssdk.String(storage.FormatRange(offset, length))
	}

	out, err := b.parent.client.GetObject(ctx, input)
	if err != nil {
		return nil, storage.NewBlobError("Get", common.AWS, b.name, key, storage.ErrBlobGet, classify(err, storage.ErrBlobNotFound))
	}

	return storage.NewFetchedBlob(b.parent, b.name, storage.BlobAttrs{
		Key:          key,
		ETag:         cleanETag(awssdk.ToString(out.ETag)),
		Size:         objectSize(out.ContentLength, out.ContentRange),
		ContentType:  awssdk.ToString(out.ContentType),
		ContentRange: awssdk.ToString(out.ContentRange),
		LastModified: awssdk.ToTime(out.LastModified),
	}, out.Body), nil
}

// WriteBlob uploads content with PutObject and refreshes attributes with HeadObject.
func (b *s3Bucket) WriteBlob(ctx context.Context, key string, content []byte) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting WriteBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.Int("bytes", len(content)))

	_, err := b.parent.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        awssdk.String(b.name),
		Key:           awssdk.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: awssdk.Int64(int64(len(content))),
	})
	if err != nil {
		return nil, storage.NewBlobError("Write", common.AWS, b.name, key, storage.ErrBlobWrite, classify(err, storage.ErrBucketNotFound))
	}

	attrs, err := b.parent.head(ctx, b.name, key)
	if err != nil {
		return nil, storage.NewBlobError("Write", common.AWS, b.name, key, storage.ErrBlobWrite, err)
	}
	return storage.NewWrittenBlob(b.parent, b.name, attrs), nil
}

// CopyBlob is a server-side CopyObject. Overriding the content type replaces
// the destination's metadata instead of copying the source's.
func (b *s3Bucket) CopyBlob(ctx context.Context, key string, destination string, contentType string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting CopyBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.String("destination", destination))

	dstBucket, dstKey, err := storage.ParseDestination(destination)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.AWS, b.name, key, storage.ErrBlobCopy, err)
	}

	input := &s3.CopyObjectInput{
		Bucket:     awssdk.String(dstBucket),
		Key:        awssdk.String(dstKey),
		CopySource: awssdk.String(copySource(b.name, key)),
	}
	if contentType != "" {
		input.ContentType = awssdk.String(contentType)
		input.MetadataDirective = types.MetadataDirectiveReplace
	}

	if _, err := b.parent.client.CopyObject(ctx, input); err != nil {
		return nil, storage.NewBlobError("Copy", common.AWS, b.name, key, storage.ErrBlobCopy, classify(err, storage.ErrBlobNotFound))
	}

	attrs, err := b.parent.head(ctx, dstBucket, dstKey)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.AWS, b.name, key, storage.ErrBlobCopy, err)
	}
	return storage.NewWrittenBlob(b.parent, dstBucket, attrs), nil
}

// DeleteBlob succeeds for absent keys, as S3 does.
func (b *s3Bucket) DeleteBlob(ctx context.Context, key string) (bool, error) {
	b.parent.logger.Debug("Starting DeleteBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	_, err := b.parent.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: awssdk.String(b.name),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return false, storage.NewBlobError("Delete", common.AWS, b.name, key, storage.ErrBlobDeletion, classify(err, storage.ErrBlobNotFound))
	}
	return true, nil
}

func (s *AWSBuckets) head(ctx context.Context, bucket, key string) (storage.BlobAttrs, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		return storage.BlobAttrs{}, classify(err, storage.ErrBlobNotFound)
	}
	return storage.BlobAttrs{
		Key:          key,
		ETag:         cleanETag(awssdk.ToString(out.ETag)),
		Size:         awssdk.ToInt64(out.ContentLength),
		ContentType:  awssdk.ToString(out.ContentType),
		LastModified: awssdk.ToTime(out.LastModified),
	}, nil
}

// Builds the URL-encoded "bucket/key" form CopyObject expects
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// S3 returns ETags with quotes, e.g. "d41d8cd98f00b204e9800998ecf8427e"
func cleanETag(etag string) string {
	return strings.Trim(etag, "\"")
}

// Ranged reads report the partial length; the total lives after the slash in Content-Range
func objectSize(contentLength *int64, contentRange *string) int64 {
	if _, total, ok := strings.Cut(awssdk.ToString(contentRange), "/"); ok {
		if n, err := strconv.ParseInt(total, 10, 64); err == nil {
			return n
		}
	}
	if contentLength == nil {
		return -1
	}
	return *contentLength
}
