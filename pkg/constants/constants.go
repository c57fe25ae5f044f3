// Package constants provides shared constants used throughout the screendiff
// codebase. This includes timeouts, limits, file permissions, and other
// configuration values that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application.
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to
	// screening source APIs.
	DefaultHTTPTimeout = 30 * time.Second

	// TokenRequestTimeout is the timeout for bearer-token acquisition
	// requests.
	TokenRequestTimeout = 15 * time.Second

	// QueryTimeout is the timeout for screening a single name against a
	// single source.
	QueryTimeout = 1 * time.Minute

	// RunTimeout is the default timeout for a full screening run.
	RunTimeout = 30 * time.Minute

	// ServerShutdownTimeout is the grace period for draining in-flight
	// requests on shutdown.
	ServerShutdownTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions.
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x).
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--).
	FilePermissions = 0644
)

// Limit constants define various limits and capacities.
const (
	// MaxCellLength is the largest text we place in one spreadsheet
	// cell. The xlsx format caps cell text at 32,767 characters; we
	// leave a margin below it. Chunk boundaries never split a record,
	// so a single oversize record line may still exceed this.
	MaxCellLength = 32000

	// TokenExpirySkew is subtracted from a token's lifetime so we
	// refresh before the upstream actually rejects it.
	TokenExpirySkew = 30 * time.Second

	// MaxUploadBytes is the largest spreadsheet upload the server
	// accepts.
	MaxUploadBytes = 20 << 20

	// MaxNamesPerRun is the largest number of input names accepted in
	// one run. Inputs are spreadsheet-scale, not service-scale.
	MaxNamesPerRun = 50000

	// MinSources is the smallest number of sources a reconciliation
	// can compare.
	MinSources = 2

	// MaxSources is the largest number of sources a reconciliation can
	// compare.
	MaxSources = 3
)
