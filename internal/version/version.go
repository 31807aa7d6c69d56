// Package version holds build metadata for searchd binaries.
package version

// Overridden by the release pipeline, e.g.
//
//	go build -ldflags "-X github.com/marketdz/searchd/internal/version.Version=v1.4.0"
//
//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
