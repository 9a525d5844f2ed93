// File: pkg/storage/azure/mappers.go
package azure

import (
	"stratus/pkg/common"
	"stratus/pkg/storage"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

func mapContainerProperties(name, account string, props container.GetPropertiesResponse) storage.BucketInfo {
	info := storage.BucketInfo{
		Name:         name,
		Provider:     common.Azure,
		Scope:        account,
		Location:     account,
		StorageClass: "N/A",
		UsageBytes:   -1,
		ObjectCount:  -1,
		Encryption:   "Microsoft-managed",
		PublicAccess: "private",
	}
	if props.LastModified != nil {
		info.UpdatedAt = *props.LastModified
	}
	if props.BlobPublicAccess != nil {
		info.PublicAccess = string(*props.BlobPublicAccess)
	}
	if props.DefaultEncryptionScope != nil && *props.DefaultEncryptionScope != "" && *props.DefaultEncryptionScope != "$account-encryption-key" {
		info.Encryption = *props.DefaultEncryptionScope
	}
	// Metadata names are case-insensitive and arrive in canonical header case
	if len(props.Metadata) > 0 {
		info.Labels = make(map[string]string, len(props.Metadata))
		for k, v := range props.Metadata {
			if v != nil {
				info.Labels[strings.ToLower(k)] = *v
			}
		}
	}
	return info
}

// Listings drop the content type so every adapter reports the same listed shape.
func mapListedItem(item *container.BlobItem) storage.BlobAttrs {
	attrs := storage.BlobAttrs{Size: -1}
	if item == nil {
		return attrs
	}
	if item.Name != nil {
		attrs.Key = *item.Name
	}
	if p := item.Properties; p != nil {
		attrs.ETag = etag(p.ETag)
		if p.ContentLength != nil {
			attrs.Size = *p.ContentLength
		}
		attrs.LastModified = deref(p.LastModified)
	}
	return attrs
}

func mapBlobProperties(key string, props blob.GetPropertiesResponse) storage.BlobAttrs {
	attrs := storage.BlobAttrs{
		Key:          key,
		ETag:         etag(props.ETag),
		Size:         -1,
		LastModified: deref(props.LastModified),
	}
	if props.ContentLength != nil {
		attrs.Size = *props.ContentLength
	}
	if props.ContentType != nil {
		attrs.ContentType = *props.ContentType
	}
	return attrs
}

func mapDownload(key string, resp blob.DownloadStreamResponse) storage.BlobAttrs {
	attrs := storage.BlobAttrs{
		Key:          key,
		ETag:         etag(resp.ETag),
		Size:         -1,
		LastModified: deref(resp.LastModified),
	}
	if resp.ContentType != nil {
		attrs.ContentType = *resp.ContentType
	}
	if resp.ContentRange != nil {
		attrs.ContentRange = *resp.ContentRange
		attrs.Size = rangeTotal(*resp.ContentRange)
	} else if resp.ContentLength != nil {
		attrs.Size = *resp.ContentLength
	}
	return attrs
}

// The Blob service wraps ETags in quotes
func etag(tag *azcore.ETag) string {
	if tag == nil {
		return ""
	}
	return strings.Trim(string(*tag), `"`)
}

// Extracts the object size from "bytes a-b/total"
func rangeTotal(contentRange string) int64 {
	_, total, ok := strings.Cut(contentRange, "/")
	if !ok {
		return -1
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return -1
	}
	return n
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
