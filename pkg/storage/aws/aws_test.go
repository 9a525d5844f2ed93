// File: pkg/storage/aws/aws_test.go
package aws

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stratus/internal/config"
	"stratus/pkg/common"
	"stratus/pkg/storage"
)

func newTestBuckets(t *testing.T, pageSize int) (*AWSBuckets, *mockS3) {
	t.Helper()
	m := &mockS3{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return newWithClient(m, Config{Region: "eu-west-1", PageSize: pageSize}, nil), m
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		kind   error
	}{
		{"static keys", Config{Region: "us-east-1", AccessKeyID: "AKIA", SecretAccessKey: "s"}, nil},
		{"profile", Config{Region: "eu-west-1", Profile: "dev"}, nil},
		{"custom endpoint skips region check", Config{Endpoint: "http://localhost:9000", AccessKeyID: "a", SecretAccessKey: "b"}, nil},
		{"no credential", Config{Region: "us-east-1"}, storage.ErrBucketCredential},
		{"half a key pair", Config{Region: "us-east-1", AccessKeyID: "AKIA"}, storage.ErrBucketCredential},
		{"unknown region", Config{Region: "mars-north-1", Profile: "dev"}, storage.ErrBucketNotFound},
		{"empty region", Config{Profile: "dev"}, storage.ErrBucketNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.kind == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestNewAWSBucketsRejectsBadConfig(t *testing.T) {
	_, err := NewAWSBuckets(context.Background(), Config{Region: "nowhere-1", Profile: "p"}, nil)
	assert.True(t, storage.IsBucketNotFound(err))

	_, err = NewAWSBuckets(context.Background(), Config{Region: "us-east-1"}, nil)
	assert.True(t, storage.IsCredentialError(err))
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, isConfigured(&config.Config{}))
	assert.False(t, isConfigured(&config.Config{AWS: &config.AWSConfig{}}))
	assert.True(t, isConfigured(&config.Config{AWS: &config.AWSConfig{Region: "us-east-1"}}))
	assert.True(t, isConfigured(&config.Config{AWS: &config.AWSConfig{Endpoint: "http://localhost:9000"}}))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		missing error
		want    error
	}{
		{"typed no such bucket", &types.NoSuchBucket{}, storage.ErrBlobNotFound, storage.ErrBucketNotFound},
		{"typed no such key", &types.NoSuchKey{}, storage.ErrBucketNotFound, storage.ErrBlobNotFound},
		{"typed bare 404 on bucket", &types.NotFound{}, storage.ErrBucketNotFound, storage.ErrBucketNotFound},
		{"typed bare 404 on object", &types.NotFound{}, storage.ErrBlobNotFound, storage.ErrBlobNotFound},
		{"api code NoSuchBucket", &mockAPIError{code: "NoSuchBucket"}, storage.ErrBlobNotFound, storage.ErrBucketNotFound},
		{"api code NoSuchKey", &mockAPIError{code: "NoSuchKey"}, storage.ErrBucketNotFound, storage.ErrBlobNotFound},
		{"api code NotFound", &mockAPIError{code: "NotFound"}, storage.ErrBlobNotFound, storage.ErrBlobNotFound},
		{"access denied", &mockAPIError{code: "AccessDenied"}, storage.ErrBlobNotFound, nil},
		{"plain error", errors.New("dial tcp: timeout"), storage.ErrBlobNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, tt.missing)
			assert.True(t, errors.Is(got, tt.err), "original error must stay reachable")
			if tt.want == nil {
				assert.False(t, storage.IsNotFound(got))
				return
			}
			assert.True(t, errors.Is(got, tt.want))
		})
	}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)

	m.On("HeadBucket", ctx, &s3.HeadBucketInput{Bucket: awssdk.String("present")}).Return(&s3.HeadBucketOutput{}, nil)
	m.On("HeadBucket", ctx, &s3.HeadBucketInput{Bucket: awssdk.String("absent")}).Return(nil, &types.NotFound{})
	m.On("HeadBucket", ctx, &s3.HeadBucketInput{Bucket: awssdk.String("forbidden")}).Return(nil, &mockAPIError{code: "Forbidden"})

	ok, err := s.Exists(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Exists(ctx, "forbidden")
	assert.True(t, errors.Is(err, storage.ErrBucketOpen))

	_, err = s.Open(ctx, "absent")
	assert.True(t, storage.IsBucketNotFound(err))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)

	m.On("CreateBucket", ctx, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
		return awssdk.ToString(in.Bucket) == "regional" &&
			in.CreateBucketConfiguration != nil &&
			in.CreateBucketConfiguration.LocationConstraint == types.BucketLocationConstraint("eu-west-1")
	})).Return(&s3.CreateBucketOutput{}, nil)
	m.On("CreateBucket", ctx, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
		return awssdk.ToString(in.Bucket) == "virginia" && in.CreateBucketConfiguration == nil
	})).Return(&s3.CreateBucketOutput{}, nil)
	m.On("CreateBucket", ctx, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
		return awssdk.ToString(in.Bucket) == "taken"
	})).Return(nil, &mockAPIError{code: "BucketAlreadyExists"})

	b, err := s.Create(ctx, "regional", "")
	require.NoError(t, err)
	assert.Equal(t, "regional", b.Name())

	_, err = s.Create(ctx, "virginia", "us-east-1")
	require.NoError(t, err)

	_, err = s.Create(ctx, "taken", "")
	assert.True(t, errors.Is(err, storage.ErrBucketCreation))
}

func TestListFollowsContinuationTokens(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)

	m.On("ListBuckets", ctx, mock.MatchedBy(func(in *s3.ListBucketsInput) bool {
		return in.ContinuationToken == nil && awssdk.ToString(in.BucketRegion) == "eu-west-1"
	})).Return(&s3.ListBucketsOutput{
		Buckets:           []types.Bucket{{Name: awssdk.String("a")}},
		ContinuationToken: awssdk.String("t1"),
	}, nil).Once()
	m.On("ListBuckets", ctx, mock.MatchedBy(func(in *s3.ListBucketsInput) bool {
		return awssdk.ToString(in.ContinuationToken) == "t1"
	})).Return(&s3.ListBucketsOutput{
		Buckets: []types.Bucket{{Name: awssdk.String("b")}},
	}, nil).Once()

	buckets, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "a", buckets[0].Name())
	assert.Equal(t, "b", buckets[1].Name())
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)

	m.On("DeleteBucket", ctx, &s3.DeleteBucketInput{Bucket: awssdk.String("gone")}).Return(&s3.DeleteBucketOutput{}, nil)
	m.On("DeleteBucket", ctx, &s3.DeleteBucketInput{Bucket: awssdk.String("missing")}).Return(nil, &types.NoSuchBucket{})
	m.On("DeleteBucket", ctx, &s3.DeleteBucketInput{Bucket: awssdk.String("full")}).Return(nil, &mockAPIError{code: "BucketNotEmpty"})

	ok, err := s.Delete(ctx, "gone")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Delete(ctx, "missing")
	assert.True(t, storage.IsBucketNotFound(err))

	_, err = s.Delete(ctx, "full")
	assert.True(t, errors.Is(err, storage.ErrBucketDeletion))
	assert.False(t, storage.IsNotFound(err))
}

func TestListBlobs(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 2)
	modified := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil && awssdk.ToInt32(in.MaxKeys) == 2
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: awssdk.String("a"), ETag: awssdk.String(`"e1"`), Size: awssdk.Int64(1), LastModified: &modified},
			{Key: awssdk.String("b"), ETag: awssdk.String(`"e2"`), Size: awssdk.Int64(2)},
		},
		IsTruncated:           awssdk.Bool(true),
		NextContinuationToken: awssdk.String("next-token"),
	}, nil)
	m.On("ListObjectsV2", ctx, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return awssdk.ToString(in.ContinuationToken) == "next-token"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: awssdk.String("c"), Size: awssdk.Int64(3)}},
		IsTruncated: awssdk.Bool(false),
	}, nil)

	bucket := s.handle("media")
	page, next, err := bucket.ListBlobs(ctx, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "next-token", next)
	assert.Equal(t, "e1", page[0].ETag)
	assert.Equal(t, modified, page[0].LastModified)
	assert.Equal(t, common.AWS, page[0].Provider)
	assert.Equal(t, "eu-west-1", page[0].Scope)
	assert.Equal(t, storage.BlobListed, page[0].State())

	page, next, err = bucket.ListBlobs(ctx, next)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "", next)
}

func TestGetBlob(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)

	m.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return awssdk.ToString(in.Key) == "digits" && awssdk.ToString(in.Range) == "bytes=2-5"
	})).Return(&s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader("2345")),
		ContentLength: awssdk.Int64(4),
		ContentRange:  awssdk.String("bytes 2-5/10"),
		ContentType:   awssdk.String("text/plain"),
		ETag:          awssdk.String(`"abc"`),
	}, nil)
	m.On("GetObject", ctx, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return awssdk.ToString(in.Key) == "missing"
	})).Return(nil, &types.NoSuchKey{})

	bucket := s.handle("media")
	blob, err := bucket.GetBlob(ctx, "digits", "bytes=2-5")
	require.NoError(t, err)
	assert.Equal(t, int64(10), blob.Size)
	assert.Equal(t, "abc", blob.ETag)
	assert.Equal(t, "text/plain", blob.ContentType)
	data, err := blob.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2345", string(data))

	_, err = bucket.GetBlob(ctx, "missing", "")
	assert.True(t, errors.Is(err, storage.ErrBlobGet))
	assert.True(t, storage.IsBlobNotFound(err))
}

func TestWriteBlob(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)

	var uploaded string
	m.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return awssdk.ToString(in.Key) == "new.json" && awssdk.ToInt64(in.ContentLength) == 14
	})).Run(func(args mock.Arguments) {
		body, _ := io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
		uploaded = string(body)
	}).Return(&s3.PutObjectOutput{}, nil)
	m.On("HeadObject", ctx, &s3.HeadObjectInput{Bucket: awssdk.String("media"), Key: awssdk.String("new.json")}).Return(&s3.HeadObjectOutput{
		ContentLength: awssdk.Int64(14),
		ContentType:   awssdk.String("application/json"),
		ETag:          awssdk.String(`"etag"`),
	}, nil)

	blob, err := s.handle("media").WriteBlob(ctx, "new.json", []byte(`{"example": 1}`))
	require.NoError(t, err)
	assert.Equal(t, storage.BlobWritten, blob.State())
	assert.Equal(t, int64(14), blob.Size)
	assert.Equal(t, "etag", blob.ETag)
	assert.Equal(t, `{"example": 1}`, uploaded)
}

func TestWriteBlobFailure(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)
	m.On("PutObject", ctx, mock.Anything).Return(nil, &mockAPIError{code: "AccessDenied"})

	_, err := s.handle("media").WriteBlob(ctx, "k", nil)
	assert.True(t, errors.Is(err, storage.ErrBlobWrite))
}

func TestCopyBlob(t *testing.T) {
	ctx := context.Background()

	t.Run("content type override replaces metadata", func(t *testing.T) {
		s, m := newTestBuckets(t, 0)
		m.On("CopyObject", ctx, mock.MatchedBy(func(in *s3.CopyObjectInput) bool {
			return awssdk.ToString(in.Bucket) == "archive" &&
				awssdk.ToString(in.Key) == "2024/a b.json" &&
				awssdk.ToString(in.CopySource) == "media/dir/a%20b.json" &&
				awssdk.ToString(in.ContentType) == "application/json" &&
				in.MetadataDirective == types.MetadataDirectiveReplace
		})).Return(&s3.CopyObjectOutput{}, nil)
		m.On("HeadObject", ctx, &s3.HeadObjectInput{Bucket: awssdk.String("archive"), Key: awssdk.String("2024/a b.json")}).
			Return(&s3.HeadObjectOutput{ContentType: awssdk.String("application/json")}, nil)

		blob, err := s.handle("media").CopyBlob(ctx, "dir/a b.json", "archive/2024/a b.json", "application/json")
		require.NoError(t, err)
		assert.Equal(t, "archive", blob.Bucket)
		assert.Equal(t, "2024/a b.json", blob.Key)
	})

	t.Run("no override keeps metadata", func(t *testing.T) {
		s, m := newTestBuckets(t, 0)
		m.On("CopyObject", ctx, mock.MatchedBy(func(in *s3.CopyObjectInput) bool {
			return in.ContentType == nil && in.MetadataDirective == ""
		})).Return(&s3.CopyObjectOutput{}, nil)
		m.On("HeadObject", ctx, mock.Anything).Return(&s3.HeadObjectOutput{}, nil)

		_, err := s.handle("media").CopyBlob(ctx, "k", "media/k2", "")
		require.NoError(t, err)
	})

	t.Run("malformed destination never reaches S3", func(t *testing.T) {
		s, _ := newTestBuckets(t, 0)
		_, err := s.handle("media").CopyBlob(ctx, "k", "no-slash", "")
		require.Error(t, err)

		var blobErr *storage.BlobError
		require.ErrorAs(t, err, &blobErr)
		assert.Equal(t, storage.ErrBlobCopy, blobErr.Err)
		assert.Equal(t, storage.MalformedDestinationMessage, blobErr.Detail)
	})
}

func TestDeleteBlobMissingKeySucceeds(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)
	m.On("DeleteObject", ctx, &s3.DeleteObjectInput{Bucket: awssdk.String("media"), Key: awssdk.String("never")}).
		Return(&s3.DeleteObjectOutput{}, nil)

	ok, err := s.handle("media").DeleteBlob(ctx, "never")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)
	created := time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC)

	m.On("GetBucketLocation", ctx, mock.Anything).Return(&s3.GetBucketLocationOutput{LocationConstraint: types.BucketLocationConstraintEuWest1}, nil)
	m.On("ListBuckets", ctx, mock.Anything).Return(&s3.ListBucketsOutput{
		Buckets: []types.Bucket{{Name: awssdk.String("media"), CreationDate: &created}},
	}, nil)
	m.On("GetBucketVersioning", ctx, mock.Anything).Return(&s3.GetBucketVersioningOutput{Status: types.BucketVersioningStatusEnabled}, nil)
	m.On("GetBucketTagging", ctx, mock.Anything).Return(&s3.GetBucketTaggingOutput{
		TagSet: []types.Tag{{Key: awssdk.String("team"), Value: awssdk.String("media")}},
	}, nil)

	info, err := s.Describe(ctx, "media")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", info.Location)
	assert.Equal(t, created, info.CreatedAt)
	assert.Equal(t, int64(-1), info.UsageBytes)
	require.NotNil(t, info.Versioning)
	assert.True(t, info.Versioning.Enabled)
	assert.Equal(t, map[string]string{"team": "media"}, info.Labels)
}

func TestDescribeWithoutTags(t *testing.T) {
	ctx := context.Background()
	s, m := newTestBuckets(t, 0)

	m.On("GetBucketLocation", ctx, mock.Anything).Return(&s3.GetBucketLocationOutput{}, nil)
	m.On("ListBuckets", ctx, mock.Anything).Return(&s3.ListBucketsOutput{}, nil)
	m.On("GetBucketVersioning", ctx, mock.Anything).Return(&s3.GetBucketVersioningOutput{}, nil)
	m.On("GetBucketTagging", ctx, mock.Anything).Return(nil, &mockAPIError{code: "NoSuchTagSet"})

	info, err := s.Describe(ctx, "media")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", info.Location)
	assert.Nil(t, info.Labels)
	assert.False(t, info.Versioning.Enabled)
}

func TestObjectSize(t *testing.T) {
	assert.Equal(t, int64(10), objectSize(awssdk.Int64(4), awssdk.String("bytes 2-5/10")))
	assert.Equal(t, int64(4), objectSize(awssdk.Int64(4), awssdk.String("bytes 2-5/*")))
	assert.Equal(t, int64(7), objectSize(awssdk.Int64(7), nil))
	assert.Equal(t, int64(-1), objectSize(nil, nil))
}

func TestCopySource(t *testing.T) {
	assert.Equal(t, "media/a/b%20c.png", copySource("media", "a/b c.png"))
	assert.Equal(t, "media/%3Fq", copySource("media", "?q"))
}
