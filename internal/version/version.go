package version

import "fmt"

var (
	// Version is the installer's semantic version, overridden via ldflags
	// on release builds.
	Version = "0.0.0-dev"
	// Commit is the short git SHA embedded at build time, "none" locally.
	Commit = "none"
	// BuildTime is the UTC build timestamp, "unknown" locally.
	BuildTime = "unknown"
)

// Short returns only the semantic version.
func Short() string {
	return Version
}

// Full renders the version together with commit and build time for CLI
// output and logs.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
