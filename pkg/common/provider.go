// File: pkg/common/provider.go
package common

type Provider string

const (
	GCP   Provider = "GCP"
	AWS   Provider = "AWS"
	Azure Provider = "Azure"
	MinIO Provider = "MinIO"
	Local Provider = "Local"
)
