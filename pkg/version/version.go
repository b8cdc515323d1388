// Package version derives the application version from build
// metadata: an -ldflags override first, then VCS info from
// debug.ReadBuildInfo, falling back to "dev".
package version

import "runtime/debug"

// AppName appears in version strings and startup log lines.
const AppName = "parley"

// commitOverride is set via -ldflags for container builds where .git
// metadata is unavailable.
var commitOverride string

// Commit is the short git commit hash, or "dev" when no build
// metadata exists (go test, non-git builds).
var Commit = resolveCommit()

func resolveCommit() string {
	if commitOverride != "" {
		return shorten(commitOverride)
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return shorten(s.Value)
		}
	}
	return "dev"
}

func shorten(rev string) string {
	if len(rev) > 8 {
		return rev[:8]
	}
	return rev
}

// Full returns "parley/<commit>" for log lines and user agents.
func Full() string {
	return AppName + "/" + Commit
}
