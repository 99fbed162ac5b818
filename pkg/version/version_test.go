package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Tests here mutate package globals and must not run in parallel.

func restore(t *testing.T) {
	t.Helper()

	v, c, d := Version, Commit, Date

	t.Cleanup(func() {
		Version, Commit, Date = v, c, d
	})
}

func TestString_Defaults(t *testing.T) {
	restore(t)

	Version, Commit, Date = "dev", "none", "unknown"

	assert.Equal(t, "dev (commit: none, built: unknown)", String())
}

func TestApplyBuildInfo_FillsDefaults(t *testing.T) {
	restore(t)

	Version, Commit, Date = "dev", "none", "unknown"

	applyBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	assert.Equal(t, "v1.2.3", Version)
	assert.Equal(t, "0123456789ab", Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", Date)
}

func TestApplyBuildInfo_KeepsLinkerValues(t *testing.T) {
	restore(t)

	Version, Commit, Date = "v9.9.9", "feedbeef", "yesterday"

	applyBuildInfo(&debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}},
	})

	assert.Equal(t, "v9.9.9", Version)
	assert.Equal(t, "feedbeef", Commit)
	assert.Equal(t, "yesterday", Date)
}
