// File: internal/service/storage_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"stratus/internal/provider/factory"
	"stratus/pkg/storage"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fishy/errbatch"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BucketListing is one row of a multi-provider bucket listing.
type BucketListing struct {
	Provider string
	Scope    string
	Name     string
}

// BlobQuery selects which blobs ListBlobs returns.
type BlobQuery struct {
	// Cursor resumes a previous page. Ignored when All is set.
	Cursor string
	// All drains every page instead of returning one.
	All bool
	// Match is a doublestar glob (e.g. "images/**/*.png") applied to keys.
	Match string
}

// BlobPage is a (possibly filtered) page of listed blobs.
type BlobPage struct {
	Blobs []*storage.Blob
	// Next is the cursor for the following page, empty on the last one.
	Next string
}

type StorageService struct {
	providerFactory *factory.Factory
	logger          *zap.Logger
}

func NewStorageService(providerFactory *factory.Factory, logger *zap.Logger) *StorageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageService{
		providerFactory: providerFactory,
		logger:          logger.With(zap.String("service", "StorageService")),
	}
}

// --- Bucket Operations ---

// ListAllBuckets queries every provider concurrently. Providers that fail are
// reported together in the returned error alongside the buckets of those that
// succeeded.
func (s *StorageService) ListAllBuckets(ctx context.Context, providerNames []string) ([]BucketListing, error) {
	if len(providerNames) == 0 {
		return nil, nil
	}

	s.logger.Debug("Starting ListAllBuckets operation", zap.Strings("providers", providerNames))

	var (
		allBuckets []BucketListing
		mu         sync.Mutex
		failures   errbatch.ErrBatch
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, pName := range providerNames {
		g.Go(func() error {
			listing, err := s.listProvider(gctx, pName)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("Failed to list buckets from provider", zap.String("provider", pName), zap.Error(err))
				failures.Add(fmt.Errorf("%s: %w", pName, err))
				return nil
			}
			allBuckets = append(allBuckets, listing...)
			s.logger.Debug("Successfully fetched buckets", zap.String("provider", pName), zap.Int("count", len(listing)))
			return nil
		})
	}
	// Per-provider failures go to the batch, so Wait only reports cancellation
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(allBuckets, func(i, j int) bool {
		if allBuckets[i].Provider != allBuckets[j].Provider {
			return allBuckets[i].Provider < allBuckets[j].Provider
		}
		return allBuckets[i].Name < allBuckets[j].Name
	})
	return allBuckets, failures.Compile()
}

func (s *StorageService) listProvider(ctx context.Context, providerName string) ([]BucketListing, error) {
	buckets, err := s.providerFactory.GetBuckets(ctx, providerName)
	if err != nil {
		return nil, err
	}
	defer buckets.Close()

	handles, err := buckets.List(ctx)
	if err != nil {
		return nil, err
	}

	listing := make([]BucketListing, 0, len(handles))
	for _, h := range handles {
		listing = append(listing, BucketListing{
			Provider: providerName,
			Scope:    buckets.Scope(),
			Name:     h.Name(),
		})
	}
	return listing, nil
}

// DescribeBucket reports bucket details. Collections that cannot describe
// themselves yield the identity fields only, after confirming the bucket exists.
func (s *StorageService) DescribeBucket(ctx context.Context, bucketName, providerName string) (storage.BucketInfo, error) {
	s.logger.Debug("Starting DescribeBucket operation", zap.String("bucket", bucketName), zap.String("provider", providerName))

	buckets, err := s.getBuckets(ctx, providerName)
	if err != nil {
		return storage.BucketInfo{}, err
	}
	defer buckets.Close()

	describer, ok := buckets.(storage.Describer)
	if !ok {
		if _, err := buckets.Open(ctx, bucketName); err != nil {
			s.logger.Error("Failed to describe bucket", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.Error(err))
			return storage.BucketInfo{}, err
		}
		return storage.BucketInfo{
			Name:        bucketName,
			Provider:    buckets.Provider(),
			Scope:       buckets.Scope(),
			UsageBytes:  -1,
			ObjectCount: -1,
		}, nil
	}

	info, err := describer.Describe(ctx, bucketName)
	if err != nil {
		s.logger.Error("Failed to describe bucket", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.Error(err))
		return storage.BucketInfo{}, err
	}
	return info, nil
}

func (s *StorageService) CreateBucket(ctx context.Context, bucketName, providerName, location string) error {
	s.logger.Debug("Starting CreateBucket operation", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("location", location))

	buckets, err := s.getBuckets(ctx, providerName)
	if err != nil {
		return err
	}
	defer buckets.Close()

	if _, err := buckets.Create(ctx, bucketName, location); err != nil {
		s.logger.Error("Failed to create bucket", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.Error(err))
		return err
	}
	return nil
}

func (s *StorageService) DeleteBucket(ctx context.Context, bucketName, providerName string) error {
	s.logger.Debug("Starting DeleteBucket operation", zap.String("bucket", bucketName), zap.String("provider", providerName))

	buckets, err := s.getBuckets(ctx, providerName)
	if err != nil {
		return err
	}
	defer buckets.Close()

	if _, err := buckets.Delete(ctx, bucketName); err != nil {
		s.logger.Error("Failed to delete bucket", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.Error(err))
		return err
	}
	return nil
}

// --- Blob Operations ---

// ListBlobs returns one page of blobs, or every blob when query.All is set.
// A Match pattern filters keys after listing, so a filtered page may be
// shorter than the backend's page size while Next still advances.
func (s *StorageService) ListBlobs(ctx context.Context, bucketName, providerName string, query BlobQuery) (BlobPage, error) {
	s.logger.Debug("Starting ListBlobs operation", zap.String("bucket", bucketName), zap.String("provider", providerName),
		zap.String("cursor", query.Cursor), zap.Bool("all", query.All), zap.String("match", query.Match))

	if query.Match != "" && !doublestar.ValidatePattern(query.Match) {
		return BlobPage{}, fmt.Errorf("invalid match pattern '%s'", query.Match)
	}

	var page BlobPage
	err := s.withBucket(ctx, providerName, bucketName, func(bucket storage.Bucket) error {
		var err error
		if query.All {
			page.Blobs, err = storage.ListAll(ctx, bucket)
		} else {
			page.Blobs, page.Next, err = bucket.ListBlobs(ctx, query.Cursor)
		}
		return err
	})
	if err != nil {
		s.logger.Error("Failed to list blobs", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.Error(err))
		return BlobPage{}, err
	}

	page.Blobs = filterBlobs(page.Blobs, query.Match)
	return page, nil
}

func filterBlobs(blobs []*storage.Blob, pattern string) []*storage.Blob {
	if pattern == "" {
		return blobs
	}
	matched := make([]*storage.Blob, 0, len(blobs))
	for _, b := range blobs {
		// The pattern was validated, so Match cannot fail
		if ok, _ := doublestar.Match(pattern, b.Key); ok {
			matched = append(matched, b)
		}
	}
	return matched
}

// GetBlob fetches key and drains its body. The returned blob has no body left.
func (s *StorageService) GetBlob(ctx context.Context, bucketName, providerName, key, contentRange string) (*storage.Blob, []byte, error) {
	s.logger.Debug("Starting GetBlob operation", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.String("range", contentRange))

	var (
		blob    *storage.Blob
		content []byte
	)
	err := s.withBucket(ctx, providerName, bucketName, func(bucket storage.Bucket) error {
		var err error
		blob, err = bucket.GetBlob(ctx, key, contentRange)
		if err != nil {
			return err
		}
		content, err = blob.Read(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to get blob", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.Error(err))
		return nil, nil, err
	}
	return blob, content, nil
}

// DescribeBlob returns the metadata of key. The body is closed unread.
func (s *StorageService) DescribeBlob(ctx context.Context, bucketName, providerName, key string) (*storage.Blob, error) {
	s.logger.Debug("Starting DescribeBlob operation", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key))

	var blob *storage.Blob
	err := s.withBucket(ctx, providerName, bucketName, func(bucket storage.Bucket) error {
		var err error
		blob, err = bucket.GetBlob(ctx, key, "")
		if err != nil {
			return err
		}
		return blob.Close()
	})
	if err != nil {
		s.logger.Error("Failed to describe blob", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return blob, nil
}

func (s *StorageService) WriteBlob(ctx context.Context, bucketName, providerName, key string, content []byte) (*storage.Blob, error) {
	s.logger.Debug("Starting WriteBlob operation", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.Int("bytes", len(content)))

	var blob *storage.Blob
	err := s.withBucket(ctx, providerName, bucketName, func(bucket storage.Bucket) error {
		var err error
		blob, err = bucket.WriteBlob(ctx, key, content)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to write blob", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return blob, nil
}

func (s *StorageService) CopyBlob(ctx context.Context, bucketName, providerName, key, destination, contentType string) (*storage.Blob, error) {
	s.logger.Debug("Starting CopyBlob operation", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.String("destination", destination))

	var blob *storage.Blob
	err := s.withBucket(ctx, providerName, bucketName, func(bucket storage.Bucket) error {
		var err error
		blob, err = bucket.CopyBlob(ctx, key, destination, contentType)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to copy blob", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return blob, nil
}

func (s *StorageService) DeleteBlob(ctx context.Context, bucketName, providerName, key string) (bool, error) {
	s.logger.Debug("Starting DeleteBlob operation", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key))

	var deleted bool
	err := s.withBucket(ctx, providerName, bucketName, func(bucket storage.Bucket) error {
		var err error
		deleted, err = bucket.DeleteBlob(ctx, key)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to delete blob", zap.String("bucket", bucketName), zap.String("provider", providerName), zap.String("key", key), zap.Error(err))
		return false, err
	}
	return deleted, nil
}

// Helper to initialize the bucket collection and handle common error wrapping
func (s *StorageService) getBuckets(ctx context.Context, providerName string) (storage.Buckets, error) {
	buckets, err := s.providerFactory.GetBuckets(ctx, providerName)
	if err != nil {
		s.logger.Error("Failed to initialize provider", zap.String("provider", providerName), zap.Error(err))
		return nil, fmt.Errorf("error initializing provider: %w", err)
	}
	return buckets, nil
}

// Opens bucketName on the provider, runs fn, and closes the collection
func (s *StorageService) withBucket(ctx context.Context, providerName, bucketName string, fn func(storage.Bucket) error) error {
	buckets, err := s.getBuckets(ctx, providerName)
	if err != nil {
		return err
	}
	bucket, err := buckets.Open(ctx, bucketName)
	if err != nil {
		return errors.Join(err, buckets.Close())
	}
	if err := fn(bucket); err != nil {
		return errors.Join(err, buckets.Close())
	}
	return buckets.Close()
}
