// File: pkg/storage/local/client.go

// Package local stores buckets as directories under a root directory.
//
// Each top-level directory of the root is a bucket and every regular file
// below it is a blob whose key is the slash-separated path relative to the
// bucket directory. Content types and etags live in JSON sidecars under
// <root>/.stratus-meta so the data files stay byte-identical to what was written.
package local

import (
	"context"
	"fmt"
	"os"
	"stratus/internal/config"
	"stratus/internal/provider/registry"
	"stratus/pkg/common"
	"stratus/pkg/storage"

	"github.com/fishy/rowlock"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the number of blobs per ListBlobs page when none is configured
	DefaultPageSize = 1000

	metaDirName = ".stratus-meta"
)

func init() {
	registry.RegisterProvider("local", registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
	})
}

func isConfigured(cfg *config.Config) bool {
	return cfg.Local != nil && cfg.Local.Root != ""
}

func initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Buckets, error) {
	if !isConfigured(cfg) {
		return nil, fmt.Errorf("local configuration missing or incomplete (local.root required)")
	}
	return NewLocalBuckets(afero.NewOsFs(), Config{
		Root:     cfg.Local.Root,
		PageSize: cfg.List.PageSize,
	}, logger)
}

type Config struct {
	// Root is the directory whose subdirectories are buckets. It must already exist.
	Root string
	// PageSize caps ListBlobs pages; zero means DefaultPageSize.
	PageSize int
}

// LocalBuckets is the bucket collection rooted at one directory.
type LocalBuckets struct {
	fs       afero.Fs
	root     string
	pageSize int
	locks    *rowlock.RowLock
	logger   *zap.Logger
}

var _ storage.Buckets = (*LocalBuckets)(nil)
var _ storage.Describer = (*LocalBuckets)(nil)

// NewLocalBuckets binds a collection to cfg.Root on fs.
// A missing root is reported as ErrBucketNotFound.
func NewLocalBuckets(fs afero.Fs, cfg Config, logger *zap.Logger) (*LocalBuckets, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Root == "" {
		return nil, storage.NewBucketError("New", common.Local, "", storage.ErrBucketCredential, fmt.Errorf("root directory is not set"))
	}

	info, err := fs.Stat(cfg.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.NewBucketError("New", common.Local, "", storage.ErrBucketNotFound, fmt.Errorf("root directory %s does not exist", cfg.Root))
		}
		return nil, storage.NewBucketError("New", common.Local, "", storage.ErrBucketOpen, err)
	}
	if !info.IsDir() {
		return nil, storage.NewBucketError("New", common.Local, "", storage.ErrBucketNotFound, fmt.Errorf("root %s is not a directory", cfg.Root))
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &LocalBuckets{
		fs:       fs,
		root:     cfg.Root,
		pageSize: pageSize,
		locks:    rowlock.NewRowLock(rowlock.MutexNewLocker),
		logger:   logger,
	}, nil
}

func (l *LocalBuckets) Provider() common.Provider {
	return common.Local
}

func (l *LocalBuckets) Scope() string {
	return l.root
}

// Close is a no-op; the filesystem needs no teardown.
func (l *LocalBuckets) Close() error {
	return nil
}
