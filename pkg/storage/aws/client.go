// File: pkg/storage/aws/client.go
package aws

import (
	"context"
	"errors"
	"fmt"
	"stratus/internal/config"
	"stratus/internal/provider/registry"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

func init() {
	registry.RegisterProvider("aws", registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg.AWS != nil && (cfg.AWS.Region != "" || cfg.AWS.Endpoint != "")
}

func initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Buckets, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("AWS configuration missing or incomplete (aws.region required)")
	}
	return NewAWSBuckets(ctx, Config{
		Region:          cfg.AWS.Region,
		Profile:         cfg.AWS.Profile,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.Endpoint,
		ForcePathStyle:  cfg.AWS.ForcePathStyle,
		PageSize:        cfg.List.PageSize,
	}, logger)
}

// s3API is the subset of *s3.Client the adapter calls
type s3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	GetBucketVersioning(ctx context.Context, params *s3.GetBucketVersioningInput, optFns ...func(*s3.Options)) (*s3.GetBucketVersioningOutput, error)
	GetBucketTagging(ctx context.Context, params *s3.GetBucketTaggingInput, optFns ...func(*s3.Options)) (*s3.GetBucketTaggingOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ s3API = (*s3.Client)(nil)

// AWSBuckets is the bucket collection of one S3 region.
type AWSBuckets struct {
	client   s3API
	region   string
	endpoint string
	pageSize int
	logger   *zap.Logger
}

var _ storage.Buckets = (*AWSBuckets)(nil)
var _ storage.Describer = (*AWSBuckets)(nil)

// NewAWSBuckets validates cfg and builds an S3 client from its explicit credential.
func NewAWSBuckets(ctx context.Context, cfg Config, logger *zap.Logger) (*AWSBuckets, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, storage.NewBucketError("New", common.AWS, "", storage.ErrBucketCredential, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = awssdk.String(cfg.Endpoint)
		}
	})

	return newWithClient(client, cfg, logger), nil
}

func newWithClient(client s3API, cfg Config, logger *zap.Logger) *AWSBuckets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AWSBuckets{
		client:   client,
		region:   cfg.region(),
		endpoint: cfg.Endpoint,
		pageSize: cfg.pageSize(),
		logger:   logger,
	}
}

func loadAWSConfig(ctx context.Context, cfg Config) (awssdk.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.region()),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	} else {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

func (s *AWSBuckets) Provider() common.Provider {
	return common.AWS
}

func (s *AWSBuckets) Scope() string {
	return s.region
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (s *AWSBuckets) Close() error {
	return nil
}

// Tags S3 not-found responses so storage.IsNotFound recognises them.
// missing is the kind used for a bare 404, which HeadBucket and HeadObject return without a code.
func classify(err error, missing error) error {
	var noSuchBucket *types.NoSuchBucket
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound

	switch {
	case errors.As(err, &noSuchBucket):
		return storage.MarkNotFound(storage.ErrBucketNotFound, err)
	case errors.As(err, &noSuchKey):
		return storage.MarkNotFound(storage.ErrBlobNotFound, err)
	case errors.As(err, &notFound):
		return storage.MarkNotFound(missing, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return storage.MarkNotFound(storage.ErrBucketNotFound, err)
		case "NoSuchKey":
			return storage.MarkNotFound(storage.ErrBlobNotFound, err)
		case "NotFound":
			return storage.MarkNotFound(missing, err)
		}
	}
	return err
}

// Reports the S3 error code carried by err, or empty when there is none
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
