// File: pkg/storage/local/objects.go
package local

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const defaultContentType = "application/octet-stream"

var errInvalidKey = errors.New("blob key must be a relative path without '.' or '..' segments")

type localBucket struct {
	parent *LocalBuckets
	name   string
	dir    string
}

var _ storage.Bucket = (*localBucket)(nil)

func (b *localBucket) Name() string {
	return b.name
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return false
		}
	}
	return true
}

func (b *localBucket) objectPath(key string) string {
	return filepath.Join(b.dir, filepath.FromSlash(key))
}

func (b *localBucket) lockKey(key string) string {
	return b.name + "/" + key
}

// Returns every key in the bucket in lexicographic order
func (b *localBucket) keys() ([]string, error) {
	var keys []string
	err := afero.Walk(b.parent.fs, b.dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(b.dir, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// ListBlobs pages through keys in lexicographic order. The cursor is the last
// key of the previous page.
func (b *localBucket) ListBlobs(ctx context.Context, cursor string) ([]*storage.Blob, string, error) {
	keys, err := b.keys()
	if err != nil {
		if os.IsNotExist(err) {
			err = storage.MarkNotFound(storage.ErrBucketNotFound, err)
		}
		return nil, "", storage.NewBucketError("ListBlobs", common.Local, b.name, storage.ErrBucketList, err)
	}

	start := 0
	if cursor != "" {
		start = sort.Search(len(keys), func(i int) bool { return keys[i] > cursor })
	}
	end := start + b.parent.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	blobs := make([]*storage.Blob, 0, end-start)
	for _, key := range keys[start:end] {
		if err := ctx.Err(); err != nil {
			return nil, "", storage.NewBucketError("ListBlobs", common.Local, b.name, storage.ErrBucketList, err)
		}
		info, err := b.parent.fs.Stat(b.objectPath(key))
		if err != nil {
			// Removed between the walk and the stat
			continue
		}
		meta, err := b.parent.readMeta(b.name, key)
		if err != nil {
			b.parent.logger.Warn("Ignoring unreadable blob metadata", zap.String("bucket", b.name), zap.String("key", key), zap.Error(err))
		}
		blobs = append(blobs, storage.NewListedBlob(b.parent, b.name, storage.BlobAttrs{
			Key:          key,
			ETag:         meta.ETag,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		}))
	}

	next := ""
	if end < len(keys) && end > start {
		next = keys[end-1]
	}
	return blobs, next, nil
}

func (b *localBucket) GetBlob(ctx context.Context, key string, contentRange string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting GetBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	if !validKey(key) {
		return nil, storage.NewBlobError("Get", common.Local, b.name, key, storage.ErrBlobGet, errInvalidKey)
	}

	f, err := b.parent.fs.Open(b.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			err = storage.MarkNotFound(storage.ErrBlobNotFound, err)
		}
		return nil, storage.NewBlobError("Get", common.Local, b.name, key, storage.ErrBlobGet, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, storage.NewBlobError("Get", common.Local, b.name, key, storage.ErrBlobGet, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, storage.NewBlobError("Get", common.Local, b.name, key, storage.ErrBlobGet,
			storage.MarkNotFound(storage.ErrBlobNotFound, fmt.Errorf("%s is a prefix, not a blob", key)))
	}

	meta, err := b.parent.readMeta(b.name, key)
	if err != nil {
		b.parent.logger.Warn("Ignoring unreadable blob metadata", zap.String("bucket", b.name), zap.String("key", key), zap.Error(err))
	}

	attrs := storage.BlobAttrs{
		Key:          key,
		ETag:         meta.ETag,
		Size:         info.Size(),
		ContentType:  contentTypeOf(key, meta.ContentType),
		LastModified: info.ModTime(),
	}

	var body io.ReadCloser = f
	if offset, length, ok := storage.ParseRange(contentRange); ok {
		if offset >= info.Size() {
			f.Close()
			return nil, storage.NewBlobError("Get", common.Local, b.name, key, storage.ErrBlobGet,
				fmt.Errorf("range %s not satisfiable for %d bytes", contentRange, info.Size()))
		}
		if length < 0 || offset+length > info.Size() {
			length = info.Size() - offset
		}
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, storage.NewBlobError("Get", common.Local, b.name, key, storage.ErrBlobGet, err)
		}
		body = &rangeReader{Reader: io.LimitReader(f, length), Closer: f}
		attrs.ContentRange = fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, info.Size())
	}

	return storage.NewFetchedBlob(b.parent, b.name, attrs, body), nil
}

type rangeReader struct {
	io.Reader
	io.Closer
}

func (b *localBucket) WriteBlob(ctx context.Context, key string, content []byte) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting WriteBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.Int("bytes", len(content)))

	attrs, err := b.parent.writeObject(b.name, key, content, "")
	if err != nil {
		return nil, storage.NewBlobError("Write", common.Local, b.name, key, storage.ErrBlobWrite, err)
	}
	return storage.NewWrittenBlob(b.parent, b.name, attrs), nil
}

// CopyBlob reads the source and writes it to the destination bucket under the
// destination key's lock. Destinations outside this root are not reachable.
func (b *localBucket) CopyBlob(ctx context.Context, key string, destination string, contentType string) (*storage.Blob, error) {
	b.parent.logger.Debug("Starting CopyBlob operation", zap.String("bucket", b.name), zap.String("key", key), zap.String("destination", destination))

	dstBucket, dstKey, err := storage.ParseDestination(destination)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.Local, b.name, key, storage.ErrBlobCopy, err)
	}
	if !validKey(key) {
		return nil, storage.NewBlobError("Copy", common.Local, b.name, key, storage.ErrBlobCopy, errInvalidKey)
	}

	exists, err := b.parent.Exists(ctx, dstBucket)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.Local, b.name, key, storage.ErrBlobCopy, err)
	}
	if !exists {
		return nil, storage.NewBlobError("Copy", common.Local, b.name, key, storage.ErrBlobCopy,
			storage.MarkNotFound(storage.ErrBucketNotFound, fmt.Errorf("destination bucket %s does not exist", dstBucket)))
	}

	b.parent.locks.Lock(b.lockKey(key))
	content, err := afero.ReadFile(b.parent.fs, b.objectPath(key))
	var meta objectMeta
	if err == nil {
		meta, err = b.parent.readMeta(b.name, key)
	}
	b.parent.locks.Unlock(b.lockKey(key))
	if err != nil {
		if os.IsNotExist(err) {
			err = storage.MarkNotFound(storage.ErrBlobNotFound, err)
		}
		return nil, storage.NewBlobError("Copy", common.Local, b.name, key, storage.ErrBlobCopy, err)
	}

	if contentType == "" {
		contentType = meta.ContentType
	}
	attrs, err := b.parent.writeObject(dstBucket, dstKey, content, contentType)
	if err != nil {
		return nil, storage.NewBlobError("Copy", common.Local, b.name, key, storage.ErrBlobCopy, err)
	}
	return storage.NewWrittenBlob(b.parent, dstBucket, attrs), nil
}

// DeleteBlob fails with ErrBlobDeletion when key does not exist.
func (b *localBucket) DeleteBlob(ctx context.Context, key string) (bool, error) {
	b.parent.logger.Debug("Starting DeleteBlob operation", zap.String("bucket", b.name), zap.String("key", key))

	if !validKey(key) {
		return false, storage.NewBlobError("Delete", common.Local, b.name, key, storage.ErrBlobDeletion, errInvalidKey)
	}

	b.parent.locks.Lock(b.lockKey(key))
	defer b.parent.locks.Unlock(b.lockKey(key))

	p := b.objectPath(key)
	info, err := b.parent.fs.Stat(p)
	if err == nil && info.IsDir() {
		err = &os.PathError{Op: "remove", Path: p, Err: os.ErrNotExist}
	}
	if err == nil {
		err = b.parent.fs.Remove(p)
	}
	if err != nil {
		if os.IsNotExist(err) {
			err = storage.MarkNotFound(storage.ErrBlobNotFound, err)
		}
		return false, storage.NewBlobError("Delete", common.Local, b.name, key, storage.ErrBlobDeletion, err)
	}

	if err := b.parent.removeMeta(b.name, key); err != nil {
		b.parent.logger.Warn("Failed to remove blob metadata", zap.String("bucket", b.name), zap.String("key", key), zap.Error(err))
	}
	b.pruneEmptyParents(path.Dir(key))
	return true, nil
}

// Removes directories left empty by a delete, stopping at the bucket directory
func (b *localBucket) pruneEmptyParents(prefix string) {
	for prefix != "." && prefix != "/" && prefix != "" {
		dir := b.objectPath(prefix)
		entries, err := afero.ReadDir(b.parent.fs, dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := b.parent.fs.Remove(dir); err != nil {
			return
		}
		prefix = path.Dir(prefix)
	}
}

// Writes content and its sidecar under the key's row lock
func (l *LocalBuckets) writeObject(bucket, key string, content []byte, contentType string) (storage.BlobAttrs, error) {
	if !validKey(key) {
		return storage.BlobAttrs{}, errInvalidKey
	}
	dst := l.handle(bucket)
	p := dst.objectPath(key)

	l.locks.Lock(dst.lockKey(key))
	defer l.locks.Unlock(dst.lockKey(key))

	// Only prefixes are created here, never the bucket itself
	exists, err := afero.DirExists(l.fs, l.bucketDir(bucket))
	if err != nil {
		return storage.BlobAttrs{}, err
	}
	if !exists {
		return storage.BlobAttrs{}, storage.MarkNotFound(storage.ErrBucketNotFound, fmt.Errorf("bucket %s does not exist", bucket))
	}

	if err := l.fs.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return storage.BlobAttrs{}, err
	}
	if err := afero.WriteFile(l.fs, p, content, 0644); err != nil {
		return storage.BlobAttrs{}, err
	}

	sum := md5.Sum(content)
	meta := objectMeta{
		ContentType: contentTypeOf(key, contentType),
		ETag:        hex.EncodeToString(sum[:]),
	}
	if err := l.writeMeta(bucket, key, meta); err != nil {
		return storage.BlobAttrs{}, err
	}

	info, err := l.fs.Stat(p)
	if err != nil {
		return storage.BlobAttrs{}, err
	}
	return storage.BlobAttrs{
		Key:          key,
		ETag:         meta.ETag,
		Size:         info.Size(),
		ContentType:  meta.ContentType,
		LastModified: info.ModTime(),
	}, nil
}

// Falls back to the extension's registered type when none was recorded
func contentTypeOf(key, recorded string) string {
	if recorded != "" {
		return recorded
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return defaultContentType
}
