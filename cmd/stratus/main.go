// File: cmd/stratus/main.go
package main

import (
	// Registers every storage adapter with the provider registry
	_ "stratus/internal/provider"
)

func main() {
	Execute()
}
