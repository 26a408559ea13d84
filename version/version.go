// Package version holds build metadata injected via -ldflags at release
// build time. Defaults here are what a local `go build` without ldflags
// produces.
package version

var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = "unknown"
)
