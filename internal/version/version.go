package version

import "fmt"

// Set at build time with -ldflags "-X github.com/memohai/cinebot/internal/version.Version=...".
var (
	Version   = "dev"
	CommitID  = "unknown"
	BuildTime = "unknown"
)

// GetInfo returns a one-line build description.
func GetInfo() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitID, BuildTime)
}
