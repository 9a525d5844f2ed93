// File: pkg/storage/azure/buckets.go
package azure

import (
	"context"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"go.uber.org/zap"
)

// Exists probes the container's properties.
func (a *AzureBuckets) Exists(ctx context.Context, name string) (bool, error) {
	_, err := a.container(name).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
		return false, nil
	}
	return false, storage.NewBucketError("Exists", common.Azure, name, storage.ErrBucketOpen, err)
}

func (a *AzureBuckets) Open(ctx context.Context, name string) (storage.Bucket, error) {
	exists, err := a.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.NewBucketError("Open", common.Azure, name, storage.ErrBucketNotFound, nil)
	}
	return a.handle(name), nil
}

// Create makes a private container. Containers live in the account's region,
// so location is ignored.
func (a *AzureBuckets) Create(ctx context.Context, name string, location string) (storage.Bucket, error) {
	a.logger.Debug("Starting CreateBucket operation", zap.String("bucket", name), zap.String("location", location))
	if location != "" {
		a.logger.Debug("Ignoring location, containers inherit the storage account's region", zap.String("location", location))
	}

	if _, err := a.client.CreateContainer(ctx, name, nil); err != nil {
		return nil, storage.NewBucketError("Create", common.Azure, name, storage.ErrBucketCreation, err)
	}
	return a.handle(name), nil
}

func (a *AzureBuckets) List(ctx context.Context) ([]storage.Bucket, error) {
	a.logger.Debug("Starting ListBuckets operation")
	var buckets []storage.Bucket

	pager := a.client.NewListContainersPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, storage.NewBucketError("List", common.Azure, "", storage.ErrBucketList, err)
		}
		for _, item := range page.ContainerItems {
			if item == nil || item.Name == nil {
				continue
			}
			buckets = append(buckets, a.handle(*item.Name))
		}
	}
	return buckets, nil
}

// Delete marks the container for deletion. Azure removes any blobs it still holds.
func (a *AzureBuckets) Delete(ctx context.Context, name string) (bool, error) {
	a.logger.Debug("Starting DeleteBucket operation", zap.String("bucket", name))

	if _, err := a.client.DeleteContainer(ctx, name, nil); err != nil {
		if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
			return false, storage.NewBucketError("Delete", common.Azure, name, storage.ErrBucketNotFound, err)
		}
		return false, storage.NewBucketError("Delete", common.Azure, name, storage.ErrBucketDeletion, err)
	}
	return true, nil
}

func (a *AzureBuckets) Describe(ctx context.Context, name string) (storage.BucketInfo, error) {
	a.logger.Debug("Starting DescribeBucket operation", zap.String("bucket", name))

	props, err := a.container(name).GetProperties(ctx, nil)
	if err != nil {
		kind := storage.ErrBucketOpen
		if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
			kind = storage.ErrBucketNotFound
		}
		return storage.BucketInfo{}, storage.NewBucketError("Describe", common.Azure, name, kind, err)
	}
	return mapContainerProperties(name, a.account, props), nil
}

func (a *AzureBuckets) container(name string) *container.Client {
	return a.client.ServiceClient().NewContainerClient(name)
}

func (a *AzureBuckets) handle(name string) *azureBucket {
	return &azureBucket{
		parent:    a,
		name:      name,
		container: a.container(name),
	}
}
