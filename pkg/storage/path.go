// File: pkg/storage/path.go
package storage

import (
	"errors"
	"strconv"
	"strings"
)

var errMalformedDestination = errors.New(MalformedDestinationMessage)

// ParseDestination splits a copy destination of the form "{bucket}/{key}".
//
// The split happens at the first "/", so the key keeps any further slashes
// ("media/2024/01/a.png" names key "2024/01/a.png" in bucket "media").
// A destination without a slash, or with an empty bucket or key half, fails
// with an error whose message is MalformedDestinationMessage.
func ParseDestination(destination string) (bucket string, key string, err error) {
	bucket, key, found := strings.Cut(destination, "/")
	if !found || bucket == "" || key == "" {
		return "", "", errMalformedDestination
	}
	return bucket, key, nil
}

// ParseRange parses an HTTP byte range of the form "bytes=start-end" or
// "bytes=start-" into an offset and a length. A length of -1 means "to the end
// of the object". ok is false when the value is empty or cannot be parsed, in
// which case callers fetch the whole object.
func ParseRange(contentRange string) (offset int64, length int64, ok bool) {
	spec, found := strings.CutPrefix(strings.TrimSpace(contentRange), "bytes=")
	if !found {
		return 0, 0, false
	}
	startStr, endStr, found := strings.Cut(spec, "-")
	if !found || startStr == "" {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, false
	}
	if endStr == "" {
		return start, -1, true
	}

	end, err := strconv.ParseInt(endStr, 10, 64)
	if err != nil || end < start {
		return 0, 0, false
	}
	return start, end - start + 1, true
}

// FormatRange renders an offset and length back into "bytes=start-end" form.
// A negative length renders an open-ended range.
func FormatRange(offset, length int64) string {
	if length < 0 {
		return "bytes=" + strconv.FormatInt(offset, 10) + "-"
	}
	return "bytes=" + strconv.FormatInt(offset, 10) + "-" + strconv.FormatInt(offset+length-1, 10)
}
