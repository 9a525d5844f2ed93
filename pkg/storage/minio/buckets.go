// File: pkg/storage/minio/buckets.go
package minio

import (
	"context"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	miniogo "github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

func (m *MinIOBuckets) Exists(ctx context.Context, name string) (bool, error) {
	exists, err := m.client.BucketExists(ctx, name)
	if err != nil {
		return false, storage.NewBucketError("Exists", common.MinIO, name, storage.ErrBucketOpen, err)
	}
	return exists, nil
}

func (m *MinIOBuckets) Open(ctx context.Context, name string) (storage.Bucket, error) {
	exists, err := m.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.NewBucketError("Open", common.MinIO, name, storage.ErrBucketNotFound, nil)
	}
	return m.handle(name), nil
}

// Create makes a bucket in location, falling back to the configured region.
func (m *MinIOBuckets) Create(ctx context.Context, name string, location string) (storage.Bucket, error) {
	m.logger.Debug("Starting CreateBucket operation", zap.String("bucket", name), zap.String("location", location))

	region := location
	if region == "" {
		region = m.region
	}
	if err := m.client.MakeBucket(ctx, name, miniogo.MakeBucketOptions{Region: region}); err != nil {
		return nil, storage.NewBucketError("Create", common.MinIO, name, storage.ErrBucketCreation, err)
	}
	return m.handle(name), nil
}

func (m *MinIOBuckets) List(ctx context.Context) ([]storage.Bucket, error) {
	m.logger.Debug("Starting ListBuckets operation")

	infos, err := m.client.ListBuckets(ctx)
	if err != nil {
		return nil, storage.NewBucketError("List", common.MinIO, "", storage.ErrBucketList, err)
	}
	buckets := make([]storage.Bucket, 0, len(infos))
	for _, info := range infos {
		buckets = append(buckets, m.handle(info.Name))
	}
	return buckets, nil
}

// Delete removes an empty bucket. MinIO refuses buckets that still hold objects.
func (m *MinIOBuckets) Delete(ctx context.Context, name string) (bool, error) {
	m.logger.Debug("Starting DeleteBucket operation", zap.String("bucket", name))

	if err := m.client.RemoveBucket(ctx, name); err != nil {
		if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
			return false, storage.NewBucketError("Delete", common.MinIO, name, storage.ErrBucketNotFound, err)
		}
		return false, storage.NewBucketError("Delete", common.MinIO, name, storage.ErrBucketDeletion, err)
	}
	return true, nil
}

// Describe walks the whole bucket to report usage; MinIO exposes no per-bucket metric
// through the S3 API.
func (m *MinIOBuckets) Describe(ctx context.Context, name string) (storage.BucketInfo, error) {
	m.logger.Debug("Starting DescribeBucket operation", zap.String("bucket", name))

	infos, err := m.client.ListBuckets(ctx)
	if err != nil {
		return storage.BucketInfo{}, storage.NewBucketError("Describe", common.MinIO, name, storage.ErrBucketOpen, err)
	}
	var found *miniogo.BucketInfo
	for i := range infos {
		if infos[i].Name == name {
			found = &infos[i]
			break
		}
	}
	if found == nil {
		return storage.BucketInfo{}, storage.NewBucketError("Describe", common.MinIO, name, storage.ErrBucketNotFound, nil)
	}

	info := storage.BucketInfo{
		Name:         name,
		Provider:     common.MinIO,
		Scope:        m.endpoint,
		Location:     m.region,
		StorageClass: "STANDARD",
		CreatedAt:    found.CreationDate,
		UsageBytes:   -1,
		ObjectCount:  -1,
		Encryption:   "N/A",
		PublicAccess: "N/A",
	}

	if location, err := m.client.GetBucketLocation(ctx, name); err == nil && location != "" {
		info.Location = location
	} else if err != nil {
		m.logger.Warn("Failed to get bucket location", zap.String("bucket", name), zap.Error(err))
	}

	if versioning, err := m.client.GetBucketVersioning(ctx, name); err == nil {
		info.Versioning = &storage.Versioning{Enabled: versioning.Enabled()}
	} else {
		m.logger.Warn("Failed to get bucket versioning", zap.String("bucket", name), zap.Error(err))
	}

	usage, count, err := m.usage(ctx, name)
	if err != nil {
		m.logger.Warn("Failed to compute bucket usage, usage will be reported as N/A", zap.String("bucket", name), zap.Error(err))
	} else {
		info.UsageBytes = usage
		info.ObjectCount = count
	}
	return info, nil
}

func (m *MinIOBuckets) usage(ctx context.Context, name string) (int64, int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bytes, count int64
	for obj := range m.client.ListObjects(ctx, name, miniogo.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return 0, 0, obj.Err
		}
		bytes += obj.Size
		count++
	}
	return bytes, count, nil
}

func (m *MinIOBuckets) handle(name string) *minioBucket {
	return &minioBucket{parent: m, name: name}
}
