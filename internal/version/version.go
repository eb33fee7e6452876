// Package version holds build metadata injected via ldflags.
package version

import "runtime"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent is sent with every request unless overridden.
func UserAgent() string {
	return "searchflip/" + Version + " (" + runtime.Version() + ")"
}
