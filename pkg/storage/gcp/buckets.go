// File: pkg/storage/gcp/buckets.go
package gcp

import (
	"context"
	"errors"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/api/iterator"
)

// Exists probes the bucket's attributes.
func (g *GCPBuckets) Exists(ctx context.Context, name string) (bool, error) {
	_, err := g.client.Bucket(name).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
		return false, nil
	}
	return false, storage.NewBucketError("Exists", common.GCP, name, storage.ErrBucketOpen, err)
}

func (g *GCPBuckets) Open(ctx context.Context, name string) (storage.Bucket, error) {
	exists, err := g.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.NewBucketError("Open", common.GCP, name, storage.ErrBucketNotFound, nil)
	}
	return g.handle(name), nil
}

func (g *GCPBuckets) Create(ctx context.Context, name string, location string) (storage.Bucket, error) {
	g.logger.Debug("Starting CreateBucket operation", zap.String("bucket", name), zap.String("location", location))

	attrs := &gcpstorage.BucketAttrs{
		Location: location,
	}
	if err := g.client.Bucket(name).Create(ctx, g.projectID, attrs); err != nil {
		return nil, storage.NewBucketError("Create", common.GCP, name, storage.ErrBucketCreation, err)
	}
	return g.handle(name), nil
}

func (g *GCPBuckets) List(ctx context.Context) ([]storage.Bucket, error) {
	g.logger.Debug("Starting ListBuckets operation")
	var buckets []storage.Bucket

	it := g.client.Buckets(ctx, g.projectID)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storage.NewBucketError("List", common.GCP, "", storage.ErrBucketList, err)
		}
		buckets = append(buckets, g.handle(attrs.Name))
	}
	return buckets, nil
}

// Delete removes an empty bucket. GCS refuses buckets that still hold objects.
func (g *GCPBuckets) Delete(ctx context.Context, name string) (bool, error) {
	g.logger.Debug("Starting DeleteBucket operation", zap.String("bucket", name))

	if err := g.client.Bucket(name).Delete(ctx); err != nil {
		if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
			return false, storage.NewBucketError("Delete", common.GCP, name, storage.ErrBucketNotFound, err)
		}
		return false, storage.NewBucketError("Delete", common.GCP, name, storage.ErrBucketDeletion, err)
	}
	return true, nil
}

func (g *GCPBuckets) Describe(ctx context.Context, name string) (storage.BucketInfo, error) {
	g.logger.Debug("Starting DescribeBucket operation", zap.String("bucket", name))

	attrs, err := g.client.Bucket(name).Attrs(ctx)
	if err != nil {
		kind := storage.ErrBucketOpen
		if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
			kind = storage.ErrBucketNotFound
		}
		return storage.BucketInfo{}, storage.NewBucketError("Describe", common.GCP, name, kind, err)
	}

	usage, err := g.getSingleBucketUsage(ctx, name)
	if err != nil {
		level := zapcore.WarnLevel
		msg := "Failed to retrieve usage metrics due to API error, usage will be reported as N/A"
		if errors.Is(err, ErrMetricsNotFound) {
			level = zapcore.InfoLevel
			msg = "Usage metrics not yet available (bucket may be new), usage will be reported as N/A"
		}
		g.logger.Log(level, msg, zap.String("bucket", name), zap.Error(err))
		usage = -1
	}

	return mapBucketInfo(attrs, g.projectID, usage), nil
}

func (g *GCPBuckets) handle(name string) *gcsBucket {
	return &gcsBucket{
		parent: g,
		name:   name,
		handle: g.client.Bucket(name),
	}
}
