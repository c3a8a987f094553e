package catalog

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of pipeline errors
type ErrorType int

const (
	ErrSource ErrorType = iota
	ErrIntegrity
	ErrToolMissing
	ErrBuild
	ErrStore
	ErrPublish
	ErrInvalidConfig
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrSource:
		return "Source"
	case ErrIntegrity:
		return "Integrity"
	case ErrToolMissing:
		return "ToolMissing"
	case ErrBuild:
		return "Build"
	case ErrStore:
		return "Store"
	case ErrPublish:
		return "Publish"
	case ErrInvalidConfig:
		return "InvalidConfig"
	default:
		return "Unknown"
	}
}

// PipelineError represents an error from a pipeline stage, tagged with the
// application record it concerns when one is in scope.
type PipelineError struct {
	Type ErrorType
	App  string
	Err  error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.App != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.App, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Sentinel conditions callers branch on with errors.Is.
var (
	// ErrChecksumMismatch marks downloaded or produced bytes that do not
	// match their expected digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrToolUnavailable marks a build that could not start because no
	// capable builder binary is installed. It is not a build failure.
	ErrToolUnavailable = errors.New("conversion tool unavailable")

	// ErrRateLimited marks a source adapter that stopped early because the
	// backing API quota dropped below the safety threshold.
	ErrRateLimited = errors.New("api rate limit threshold reached")

	// ErrCatalogTooLarge marks a catalog commit that would exceed the
	// configured file size cap.
	ErrCatalogTooLarge = errors.New("catalog exceeds maximum file size")
)
