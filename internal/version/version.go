// Package version holds build-time identity for the on-disk cache's
// tool_version field (spec §6): a manifest written by one version and read
// by a mismatched one triggers a purge-and-rebuild.
package version

const (
	// Version is the current semantic version of the index format.
	Version = "0.1.0"

	// BuildDate is set during build time via -ldflags.
	BuildDate = "development"

	// GitCommit is set during build time via -ldflags.
	GitCommit = "unknown"
)

// Info returns the bare semantic version.
func Info() string {
	return Version
}

// FullInfo returns detailed version information for diagnostics.
func FullInfo() string {
	return "oci " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
