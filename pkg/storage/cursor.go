// File: pkg/storage/cursor.go
package storage

import (
	"context"
	"fmt"
)

// NextCursor normalises a vendor continuation token. A nil or empty token
// means there are no further pages.
func NextCursor(token *string) string {
	if token == nil {
		return ""
	}
	return *token
}

// ListAll drains every page of bucket through the cursor protocol.
func ListAll(ctx context.Context, bucket Bucket) ([]*Blob, error) {
	var all []*Blob
	cursor := ""
	for {
		page, next, err := bucket.ListBlobs(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if next == "" {
			return all, nil
		}
		// A backend echoing the same token back would otherwise loop forever
		if next == cursor {
			return nil, &BucketError{
				Op:     "ListAll",
				Bucket: bucket.Name(),
				Err:    ErrBucketList,
				Detail: fmt.Sprintf("cursor %q did not advance", cursor),
			}
		}
		cursor = next
	}
}
