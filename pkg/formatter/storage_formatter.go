// File: pkg/formatter/storage_formatter.go
package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"stratus/pkg/storage"

	"gopkg.in/yaml.v3"
)

// Output selects how results are rendered.
type Output string

const (
	OutputTable Output = "table"
	OutputYAML  Output = "yaml"
)

// ParseOutput validates an --output value
func ParseOutput(value string) (Output, error) {
	switch Output(strings.ToLower(value)) {
	case OutputTable, "":
		return OutputTable, nil
	case OutputYAML:
		return OutputYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format '%s', use table or yaml", value)
	}
}

// BucketRow is one line of a bucket listing
type BucketRow struct {
	Provider string `yaml:"provider"`
	Scope    string `yaml:"scope"`
	Name     string `yaml:"name"`
}

type StorageFormatter struct {
	output Output
}

func NewStorageFormatter(output Output) *StorageFormatter {
	if output == "" {
		output = OutputTable
	}
	return &StorageFormatter{output: output}
}

func (f *StorageFormatter) FormatBucketList(rows []BucketRow) (string, error) {
	if f.output == OutputYAML {
		return toYAML(rows)
	}

	table := NewTable([]string{"BUCKET NAME", "PROVIDER", "SCOPE"})
	for _, row := range rows {
		table.AddRow([]string{row.Name, row.Provider, row.Scope})
	}
	return table.String(), nil
}

type bucketDetailsView struct {
	Name         string            `yaml:"name"`
	Provider     string            `yaml:"provider"`
	Scope        string            `yaml:"scope"`
	Location     string            `yaml:"location,omitempty"`
	StorageClass string            `yaml:"storageClass,omitempty"`
	UsageBytes   int64             `yaml:"usageBytes"`
	ObjectCount  int64             `yaml:"objectCount"`
	Versioning   *bool             `yaml:"versioning,omitempty"`
	Encryption   string            `yaml:"encryption,omitempty"`
	PublicAccess string            `yaml:"publicAccess,omitempty"`
	CreatedAt    *time.Time        `yaml:"createdAt,omitempty"`
	UpdatedAt    *time.Time        `yaml:"updatedAt,omitempty"`
	Labels       map[string]string `yaml:"labels,omitempty"`
}

func (f *StorageFormatter) FormatBucketDetails(bucket storage.BucketInfo) (string, error) {
	if f.output == OutputYAML {
		view := bucketDetailsView{
			Name:         bucket.Name,
			Provider:     string(bucket.Provider),
			Scope:        bucket.Scope,
			Location:     bucket.Location,
			StorageClass: bucket.StorageClass,
			UsageBytes:   bucket.UsageBytes,
			ObjectCount:  bucket.ObjectCount,
			Encryption:   bucket.Encryption,
			PublicAccess: bucket.PublicAccess,
			CreatedAt:    timePtr(bucket.CreatedAt),
			UpdatedAt:    timePtr(bucket.UpdatedAt),
			Labels:       bucket.Labels,
		}
		if bucket.Versioning != nil {
			view.Versioning = &bucket.Versioning.Enabled
		}
		return toYAML(view)
	}

	var result string

	result += FormatHeaderSection("Bucket: " + bucket.Name)
	result += "\n\n"

	result += FormatSectionTitle("Overview")
	result += "\n"

	overviewTable := NewTable([]string{"Parameter", "Value"})

	details := []struct {
		Key   string
		Value string
	}{
		{"Provider", string(bucket.Provider)},
		{"Scope", orNA(bucket.Scope)},
		{"Location / Region", orNA(bucket.Location)},
		{"Storage Class", orNA(bucket.StorageClass)},
		{"Usage", storage.FormatBytes(bucket.UsageBytes)},
		{"Objects", formatCount(bucket.ObjectCount)},
		{"Versioning", formatVersioning(bucket.Versioning)},
		{"Encryption", orNA(bucket.Encryption)},
		{"Public Access", orNA(bucket.PublicAccess)},
		{"Created On", formatTime(bucket.CreatedAt)},
		{"Updated On", formatTime(bucket.UpdatedAt)},
	}

	for _, detail := range details {
		overviewTable.AddRow([]string{detail.Key, detail.Value})
	}

	result += overviewTable.String()
	result += "\n\n"

	if len(bucket.Labels) > 0 {
		result += FormatSectionTitle("Labels")
		result += "\n"
		labelsTable := NewTable([]string{"Key", "Value"})
		keys := make([]string, 0, len(bucket.Labels))
		for k := range bucket.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			labelsTable.AddRow([]string{k, bucket.Labels[k]})
		}
		result += labelsTable.String()
		result += "\n\n"
	}

	return result, nil
}

type blobView struct {
	Key          string     `yaml:"key"`
	Bucket       string     `yaml:"bucket"`
	Provider     string     `yaml:"provider"`
	Size         int64      `yaml:"size"`
	ETag         string     `yaml:"etag,omitempty"`
	ContentType  string     `yaml:"contentType,omitempty"`
	ContentRange string     `yaml:"contentRange,omitempty"`
	LastModified *time.Time `yaml:"lastModified,omitempty"`
}

type blobPageView struct {
	Blobs []blobView `yaml:"blobs"`
	Next  string     `yaml:"next,omitempty"`
}

func newBlobView(b *storage.Blob) blobView {
	return blobView{
		Key:          b.Key,
		Bucket:       b.Bucket,
		Provider:     string(b.Provider),
		Size:         b.Size,
		ETag:         b.ETag,
		ContentType:  b.ContentType,
		ContentRange: b.ContentRange,
		LastModified: timePtr(b.LastModified),
	}
}

// FormatBlobList renders a page of blobs. A non-empty next cursor is shown after the table.
func (f *StorageFormatter) FormatBlobList(blobs []*storage.Blob, next string) (string, error) {
	if f.output == OutputYAML {
		view := blobPageView{Blobs: make([]blobView, 0, len(blobs)), Next: next}
		for _, b := range blobs {
			view.Blobs = append(view.Blobs, newBlobView(b))
		}
		return toYAML(view)
	}

	table := NewTable([]string{"KEY", "SIZE", "ETAG", "LAST MODIFIED"})
	for _, b := range blobs {
		table.AddRow([]string{b.Key, storage.FormatBytes(b.Size), orNA(b.ETag), formatTime(b.LastModified)})
	}

	result := table.String()
	if next != "" {
		result += "\n" + fmt.Sprintf("More results available, continue with --cursor %s", next)
	}
	return result, nil
}

func (f *StorageFormatter) FormatBlobDetails(blob *storage.Blob) (string, error) {
	if f.output == OutputYAML {
		return toYAML(newBlobView(blob))
	}

	table := NewTable([]string{"Parameter", "Value"})
	table.AddRow([]string{"Key", blob.Key})
	table.AddRow([]string{"Bucket", blob.Bucket})
	table.AddRow([]string{"Provider", string(blob.Provider)})
	table.AddRow([]string{"Size", storage.FormatBytes(blob.Size)})
	table.AddRow([]string{"Content Type", orNA(blob.ContentType)})
	if blob.ContentRange != "" {
		table.AddRow([]string{"Content Range", blob.ContentRange})
	}
	table.AddRow([]string{"ETag", orNA(blob.ETag)})
	table.AddRow([]string{"Last Modified", formatTime(blob.LastModified)})
	return table.String(), nil
}

func toYAML(v interface{}) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error encoding yaml: %w", err)
	}
	return string(out), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	// Format time in a standard, detailed format (RFC1123)
	return t.Format(time.RFC1123)
}

func formatCount(n int64) string {
	if n < 0 {
		return "N/A"
	}
	return strconv.FormatInt(n, 10)
}

func formatVersioning(v *storage.Versioning) string {
	switch {
	case v == nil:
		return "N/A"
	case v.Enabled:
		return "Enabled"
	default:
		return "Disabled"
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
