// File: pkg/storage/aws/regions.go
package aws

import "sort"

// DefaultRegion signs requests for S3-compatible endpoints when no region is set
const DefaultRegion = "us-east-1"

// Commercial and GovCloud regions that serve S3
var knownRegions = map[string]struct{}{
	"af-south-1":     {},
	"ap-east-1":      {},
	"ap-northeast-1": {},
	"ap-northeast-2": {},
	"ap-northeast-3": {},
	"ap-south-1":     {},
	"ap-south-2":     {},
	"ap-southeast-1": {},
	"ap-southeast-2": {},
	"ap-southeast-3": {},
	"ap-southeast-4": {},
	"ap-southeast-5": {},
	"ap-southeast-7": {},
	"ca-central-1":   {},
	"ca-west-1":      {},
	"eu-central-1":   {},
	"eu-central-2":   {},
	"eu-north-1":     {},
	"eu-south-1":     {},
	"eu-south-2":     {},
	"eu-west-1":      {},
	"eu-west-2":      {},
	"eu-west-3":      {},
	"il-central-1":   {},
	"me-central-1":   {},
	"me-south-1":     {},
	"mx-central-1":   {},
	"sa-east-1":      {},
	"us-east-1":      {},
	"us-east-2":      {},
	"us-gov-east-1":  {},
	"us-gov-west-1":  {},
	"us-west-1":      {},
	"us-west-2":      {},
}

// IsKnownRegion reports whether region is an S3 region this adapter recognises
func IsKnownRegion(region string) bool {
	_, ok := knownRegions[region]
	return ok
}

// KnownRegions returns the recognised regions in sorted order
func KnownRegions() []string {
	regions := make([]string, 0, len(knownRegions))
	for r := range knownRegions {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}
