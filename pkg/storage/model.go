// File: pkg/storage/model.go
package storage

import (
	"fmt"
	"stratus/pkg/common"
	"time"
)

// BucketInfo is the detailed view of one bucket returned by a Describer.
type BucketInfo struct {
	Name         string
	Provider     common.Provider
	Scope        string
	Location     string
	StorageClass string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// A value of -1 indicates that the usage is unknown or could not be retrieved
	UsageBytes int64
	// A value of -1 indicates that the object count is unknown
	ObjectCount int64
	Labels      map[string]string
	Versioning  *Versioning
	// Encryption names the key protecting the bucket, or who manages it
	Encryption string
	// PublicAccess summarises the backend's public access setting (e.g. "Enforced", "container")
	PublicAccess string
}

type Versioning struct {
	Enabled bool
}

func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "N/A"
	}
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	sizes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	if exp >= len(sizes) {
		return fmt.Sprintf("%d B", bytes) // Fallback if extremely large
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), sizes[exp])
}
