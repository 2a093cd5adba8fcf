// Package version holds the release identifiers stamped in at link time.
package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X github.com/cempisirgen/mccole/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the line printed by --version.
func String() string {
	return fmt.Sprintf("mccole %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
