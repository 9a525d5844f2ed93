// File: internal/flags/flags.go
package flags

// Centralized definitions for CLI flags used across the application

const (
	// Provider flags are used when an operation targets a single, specific provider (e.g., describe, create, delete)
	Provider      = "provider"
	ProviderShort = "p"

	// Providers (plural) flags are used when an operation can target multiple providers (e.g., bucket list)
	// Note: 'p' is reused for both singular and plural provider flags depending on the subcommand context
	Providers      = "providers"
	ProvidersShort = "p"

	// Location flags are used to specify the geographical location or region for bucket creation
	Location      = "location"
	LocationShort = "l"

	// Bucket flags are used to specify the target bucket for blob-level operations
	Bucket      = "bucket"
	BucketShort = "b"

	// Cursor resumes a blob listing from a previous page
	Cursor = "cursor"

	// All drains every page of a blob listing
	All = "all"

	// Match filters listed keys with a doublestar glob
	Match      = "match"
	MatchShort = "m"

	// Range requests part of a blob, e.g. bytes=0-99
	Range      = "range"
	RangeShort = "r"

	ContentType = "content-type"

	// File names the local file a blob is read from or written to ("-" for stdin/stdout)
	File      = "file"
	FileShort = "F"

	// Output selects table or yaml rendering
	Output      = "output"
	OutputShort = "o"

	// Force flags are used to bypass interactive confirmation prompts for destructive operations
	Force      = "force"
	ForceShort = "f"

	// Debug flags are used to enable verbose logging
	Debug      = "debug"
	DebugShort = "d"

	// EnvFile loads credential variables from a dotenv file
	EnvFile = "env-file"
)
