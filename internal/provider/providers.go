// File: internal/provider/providers.go
package provider

// Imports every storage adapter for its side effect: each package's init()
// registers itself with the provider registry.
//
// A new backend lives in its own package under pkg/storage, registers in
// init(), and is added here.

import (
	_ "stratus/pkg/storage/aws"
	_ "stratus/pkg/storage/azure"
	_ "stratus/pkg/storage/gcp"
	_ "stratus/pkg/storage/local"
	_ "stratus/pkg/storage/minio"
)
