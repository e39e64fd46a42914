package version

import "strings"

// Build-time identification, set via ldflags:
// go build -ldflags "-X github.com/kvernberg/blogsmith/internal/version.Version=v1.2.0".
var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by the CLI: the version, plus
// commit and build time when the build stamped them.
func String() string {
	parts := []string{Version}
	if GitCommit != "unknown" {
		parts = append(parts, "commit "+GitCommit)
	}
	if BuildTime != "unknown" {
		parts = append(parts, "built "+BuildTime)
	}
	return strings.Join(parts, ", ")
}
