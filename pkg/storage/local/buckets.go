// File: pkg/storage/local/buckets.go
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var errInvalidBucketName = errors.New("bucket name must be a single path segment that does not start with '.'")

func validBucketName(name string) bool {
	return name != "" &&
		!strings.HasPrefix(name, ".") &&
		!strings.ContainsAny(name, `/\`)
}

func (l *LocalBuckets) bucketDir(name string) string {
	return filepath.Join(l.root, name)
}

func (l *LocalBuckets) bucketMetaDir(name string) string {
	return filepath.Join(l.root, metaDirName, name)
}

func (l *LocalBuckets) Exists(ctx context.Context, name string) (bool, error) {
	if !validBucketName(name) {
		return false, nil
	}
	exists, err := afero.DirExists(l.fs, l.bucketDir(name))
	if err != nil {
		return false, storage.NewBucketError("Exists", common.Local, name, storage.ErrBucketOpen, err)
	}
	return exists, nil
}

func (l *LocalBuckets) Open(ctx context.Context, name string) (storage.Bucket, error) {
	exists, err := l.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.NewBucketError("Open", common.Local, name, storage.ErrBucketNotFound, nil)
	}
	return l.handle(name), nil
}

func (l *LocalBuckets) Create(ctx context.Context, name string, location string) (storage.Bucket, error) {
	l.logger.Debug("Starting CreateBucket operation", zap.String("bucket", name))

	if !validBucketName(name) {
		return nil, storage.NewBucketError("Create", common.Local, name, storage.ErrBucketCreation, errInvalidBucketName)
	}
	exists, err := l.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, storage.NewBucketError("Create", common.Local, name, storage.ErrBucketCreation, fmt.Errorf("bucket already exists"))
	}
	if err := l.fs.MkdirAll(l.bucketDir(name), 0755); err != nil {
		return nil, storage.NewBucketError("Create", common.Local, name, storage.ErrBucketCreation, err)
	}
	return l.handle(name), nil
}

func (l *LocalBuckets) List(ctx context.Context) ([]storage.Bucket, error) {
	entries, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return nil, storage.NewBucketError("List", common.Local, "", storage.ErrBucketList, err)
	}

	buckets := make([]storage.Bucket, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !validBucketName(entry.Name()) {
			continue
		}
		buckets = append(buckets, l.handle(entry.Name()))
	}
	return buckets, nil
}

// Delete removes an empty bucket. Buckets that still hold blobs are refused.
func (l *LocalBuckets) Delete(ctx context.Context, name string) (bool, error) {
	l.logger.Debug("Starting DeleteBucket operation", zap.String("bucket", name))

	exists, err := l.Exists(ctx, name)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, storage.NewBucketError("Delete", common.Local, name, storage.ErrBucketNotFound, nil)
	}

	count, _, err := l.usage(name)
	if err != nil {
		return false, storage.NewBucketError("Delete", common.Local, name, storage.ErrBucketDeletion, err)
	}
	if count > 0 {
		return false, storage.NewBucketError("Delete", common.Local, name, storage.ErrBucketDeletion, fmt.Errorf("bucket is not empty (%d blobs)", count))
	}

	if err := l.fs.RemoveAll(l.bucketDir(name)); err != nil {
		return false, storage.NewBucketError("Delete", common.Local, name, storage.ErrBucketDeletion, err)
	}
	if err := l.fs.RemoveAll(l.bucketMetaDir(name)); err != nil {
		l.logger.Warn("Failed to remove bucket metadata", zap.String("bucket", name), zap.Error(err))
	}
	return true, nil
}

// Describe reports directory-derived details. Creation time is not tracked.
func (l *LocalBuckets) Describe(ctx context.Context, name string) (storage.BucketInfo, error) {
	exists, err := l.Exists(ctx, name)
	if err != nil {
		return storage.BucketInfo{}, err
	}
	if !exists {
		return storage.BucketInfo{}, storage.NewBucketError("Describe", common.Local, name, storage.ErrBucketNotFound, nil)
	}

	dir := l.bucketDir(name)
	info, err := l.fs.Stat(dir)
	if err != nil {
		return storage.BucketInfo{}, storage.NewBucketError("Describe", common.Local, name, storage.ErrBucketOpen, err)
	}

	details := storage.BucketInfo{
		Name:         name,
		Provider:     common.Local,
		Scope:        l.root,
		Location:     dir,
		StorageClass: "FILESYSTEM",
		UpdatedAt:    info.ModTime(),
		UsageBytes:   -1,
		ObjectCount:  -1,
	}

	count, size, err := l.usage(name)
	if err != nil {
		l.logger.Warn("Failed to compute bucket usage", zap.String("bucket", name), zap.Error(err))
		return details, nil
	}
	details.ObjectCount = count
	details.UsageBytes = size
	return details, nil
}

// Counts regular files under the bucket directory and sums their sizes
func (l *LocalBuckets) usage(name string) (int64, int64, error) {
	var count, size int64
	err := afero.Walk(l.fs, l.bucketDir(name), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			count++
			size += info.Size()
		}
		return nil
	})
	return count, size, err
}

func (l *LocalBuckets) handle(name string) *localBucket {
	return &localBucket{
		parent: l,
		name:   name,
		dir:    l.bucketDir(name),
	}
}
