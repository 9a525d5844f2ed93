// File: pkg/storage/gcp/mappers.go
package gcp

import (
	"stratus/pkg/common"
	"stratus/pkg/storage"

	gcpstorage "cloud.google.com/go/storage"
)

func mapBucketInfo(attrs *gcpstorage.BucketAttrs, projectID string, usage int64) storage.BucketInfo {
	return storage.BucketInfo{
		Name:         attrs.Name,
		Provider:     common.GCP,
		Scope:        projectID,
		Location:     attrs.Location,
		StorageClass: attrs.StorageClass,
		CreatedAt:    attrs.Created,
		UpdatedAt:    attrs.Updated,
		UsageBytes:   usage,
		// Object counts come from a separate metric that is not queried
		ObjectCount:  -1,
		Labels:       attrs.Labels,
		Versioning:   &storage.Versioning{Enabled: attrs.VersioningEnabled},
		Encryption:   mapBucketEncryption(attrs.Encryption),
		PublicAccess: mapPublicAccessPrevention(attrs.PublicAccessPrevention),
	}
}

func mapPublicAccessPrevention(pap gcpstorage.PublicAccessPrevention) string {
	switch pap {
	case gcpstorage.PublicAccessPreventionEnforced:
		return "Enforced"
	case gcpstorage.PublicAccessPreventionInherited:
		return "Inherited"
	default:
		return "Unknown"
	}
}

func mapBucketEncryption(e *gcpstorage.BucketEncryption) string {
	if e == nil || e.DefaultKMSKeyName == "" {
		// Empty key name implies Google-managed encryption
		return "Google-managed"
	}
	return e.DefaultKMSKeyName
}

// Listed blobs carry key, etag and size only
func mapListedAttrs(attrs *gcpstorage.ObjectAttrs) storage.BlobAttrs {
	return storage.BlobAttrs{
		Key:          attrs.Name,
		ETag:         attrs.Etag,
		Size:         attrs.Size,
		LastModified: attrs.Updated,
	}
}

func mapObjectAttrs(attrs *gcpstorage.ObjectAttrs) storage.BlobAttrs {
	if attrs == nil {
		return storage.BlobAttrs{Size: -1}
	}
	return storage.BlobAttrs{
		Key:          attrs.Name,
		ETag:         attrs.Etag,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
	}
}
