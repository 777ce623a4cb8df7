// Package emoji provides symbol constants for CLI output.
// These symbols create a consistent visual language across all commands.
package emoji

const (
	// Success marks a package that loaded with no UI errors.
	Success = "✓"

	// Error marks a package that failed to load.
	Error = "✗"

	// Warning marks a package that loaded but had UI errors or diagnostics.
	Warning = "!"

	// DryRun marks output of a pass that did not touch the UI.
	DryRun = "~"

	// Info represents informational messages.
	Info = "i"
)
