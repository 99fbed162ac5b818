// Package version reports the build identity of the gridstat binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Build identifiers, overridden at link time with
// -ldflags "-X github.com/Sumatoshi-tech/gridstat/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	settingRevision = "vcs.revision"
	settingTime     = "vcs.time"
	shortHashLen    = 12
)

// InitBinaryVersion fills identifiers left at their defaults from the module
// build info embedded by the Go toolchain.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	applyBuildInfo(info)
}

func applyBuildInfo(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingRevision:
			if Commit == "none" && setting.Value != "" {
				Commit = setting.Value[:min(len(setting.Value), shortHashLen)]
			}
		case settingTime:
			if Date == "unknown" && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

// String returns the full build identifier.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
