// Package version provides build-time version information for taskvoice.
package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String renders the version line printed by `taskvoice version`.
func String() string {
	return fmt.Sprintf("taskvoice %s (commit %s, built %s)", Version, Commit, BuildDate)
}
