// File: pkg/storage/aws/buckets.go
package aws

import (
	"context"
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// Exists probes the bucket with HeadBucket.
func (s *AWSBuckets) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: awssdk.String(name)})
	if err == nil {
		return true, nil
	}
	if storage.IsNotFound(classify(err, storage.ErrBucketNotFound)) {
		return false, nil
	}
	return false, storage.NewBucketError("Exists", common.AWS, name, storage.ErrBucketOpen, err)
}

func (s *AWSBuckets) Open(ctx context.Context, name string) (storage.Bucket, error) {
	exists, err := s.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.NewBucketError("Open", common.AWS, name, storage.ErrBucketNotFound, nil)
	}
	return s.handle(name), nil
}

// Create places the bucket in location, or in the collection's region when location is empty.
func (s *AWSBuckets) Create(ctx context.Context, name string, location string) (storage.Bucket, error) {
	s.logger.Debug("Starting CreateBucket operation", zap.String("bucket", name), zap.String("location", location))

	if location == "" {
		location = s.region
	}
	input := &s3.CreateBucketInput{Bucket: awssdk.String(name)}
	// us-east-1 rejects an explicit location constraint
	if location != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(location),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return nil, storage.NewBucketError("Create", common.AWS, name, storage.ErrBucketCreation, err)
	}
	return s.handle(name), nil
}

// List returns the buckets located in the collection's region.
func (s *AWSBuckets) List(ctx context.Context) ([]storage.Bucket, error) {
	entries, err := s.listBucketEntries(ctx)
	if err != nil {
		return nil, storage.NewBucketError("List", common.AWS, "", storage.ErrBucketList, err)
	}

	buckets := make([]storage.Bucket, 0, len(entries))
	for _, entry := range entries {
		buckets = append(buckets, s.handle(awssdk.ToString(entry.Name)))
	}
	return buckets, nil
}

func (s *AWSBuckets) listBucketEntries(ctx context.Context) ([]types.Bucket, error) {
	var entries []types.Bucket
	input := &s3.ListBucketsInput{}
	// Custom endpoints rarely honour the region filter
	if s.endpoint == "" {
		input.BucketRegion = awssdk.String(s.region)
	}

	for {
		out, err := s.client.ListBuckets(ctx, input)
		if err != nil {
			return nil, err
		}
		entries = append(entries, out.Buckets...)

		token := storage.NextCursor(out.ContinuationToken)
		if token == "" {
			return entries, nil
		}
		input.ContinuationToken = awssdk.String(token)
	}
}

// Delete removes an empty bucket. S3 refuses buckets that still hold objects.
func (s *AWSBuckets) Delete(ctx context.Context, name string) (bool, error) {
	s.logger.Debug("Starting DeleteBucket operation", zap.String("bucket", name))

	_, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: awssdk.String(name)})
	if err != nil {
		classified := classify(err, storage.ErrBucketNotFound)
		if storage.IsNotFound(classified) {
			return false, storage.NewBucketError("Delete", common.AWS, name, storage.ErrBucketNotFound, err)
		}
		return false, storage.NewBucketError("Delete", common.AWS, name, storage.ErrBucketDeletion, err)
	}
	return true, nil
}

// Describe assembles bucket details from location, versioning and tagging calls.
// S3 reports no usage figures through the bucket APIs, so usage stays unknown.
func (s *AWSBuckets) Describe(ctx context.Context, name string) (storage.BucketInfo, error) {
	s.logger.Debug("Starting DescribeBucket operation", zap.String("bucket", name))

	loc, err := s.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: awssdk.String(name)})
	if err != nil {
		classified := classify(err, storage.ErrBucketNotFound)
		if storage.IsNotFound(classified) {
			return storage.BucketInfo{}, storage.NewBucketError("Describe", common.AWS, name, storage.ErrBucketNotFound, err)
		}
		return storage.BucketInfo{}, storage.NewBucketError("Describe", common.AWS, name, storage.ErrBucketOpen, err)
	}

	location := string(loc.LocationConstraint)
	if location == "" {
		location = "us-east-1"
	}

	details := storage.BucketInfo{
		Name:         name,
		Provider:     common.AWS,
		Scope:        s.region,
		Location:     location,
		StorageClass: string(types.StorageClassStandard),
		UsageBytes:   -1,
		ObjectCount:  -1,
	}

	if created, ok := s.creationDate(ctx, name); ok {
		details.CreatedAt = created
	}

	if ver, err := s.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{Bucket: awssdk.String(name)}); err == nil {
		details.Versioning = &storage.Versioning{Enabled: ver.Status == types.BucketVersioningStatusEnabled}
	} else {
		s.logger.Warn("Failed to fetch bucket versioning", zap.String("bucket", name), zap.Error(err))
	}

	tags, err := s.client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{Bucket: awssdk.String(name)})
	switch {
	case err == nil:
		details.Labels = make(map[string]string, len(tags.TagSet))
		for _, tag := range tags.TagSet {
			details.Labels[awssdk.ToString(tag.Key)] = awssdk.ToString(tag.Value)
		}
	case errorCode(err) == "NoSuchTagSet":
	default:
		s.logger.Warn("Failed to fetch bucket tags", zap.String("bucket", name), zap.Error(err))
	}

	return details, nil
}

func (s *AWSBuckets) creationDate(ctx context.Context, name string) (time.Time, bool) {
	entries, err := s.listBucketEntries(ctx)
	if err != nil {
		s.logger.Warn("Failed to list buckets for creation date", zap.String("bucket", name), zap.Error(err))
		return time.Time{}, false
	}
	for _, entry := range entries {
		if awssdk.ToString(entry.Name) == name {
			return awssdk.ToTime(entry.CreationDate), true
		}
	}
	return time.Time{}, false
}

func (s *AWSBuckets) handle(name string) *s3Bucket {
	return &s3Bucket{parent: s, name: name}
}
