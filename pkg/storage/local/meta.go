// File: pkg/storage/local/meta.go
package local

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// objectMeta is the sidecar recorded next to each blob
type objectMeta struct {
	ContentType string `json:"content_type"`
	ETag        string `json:"etag"`
}

func (l *LocalBuckets) metaPath(bucket, key string) string {
	return filepath.Join(l.bucketMetaDir(bucket), filepath.FromSlash(key)+".json")
}

// Returns the sidecar for key, or a zero value when none was recorded
func (l *LocalBuckets) readMeta(bucket, key string) (objectMeta, error) {
	var meta objectMeta
	data, err := afero.ReadFile(l.fs, l.metaPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return meta, nil
		}
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return objectMeta{}, err
	}
	return meta, nil
}

func (l *LocalBuckets) writeMeta(bucket, key string, meta objectMeta) error {
	path := l.metaPath(bucket, key)
	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return afero.WriteFile(l.fs, path, data, 0644)
}

func (l *LocalBuckets) removeMeta(bucket, key string) error {
	err := l.fs.Remove(l.metaPath(bucket, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
