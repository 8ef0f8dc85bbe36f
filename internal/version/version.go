// Package version reports the build version of the streamwatch binary.
//
//	go build -ldflags "-X github.com/bnema/streamwatch/internal/version.Version=v0.3.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags at build time.
var (
	Version   = "dev"
	GitCommit = ""
)

// Info returns "dev (abc1234)" style output. The commit falls back to the
// VCS stamp Go embeds into module builds.
func Info() string {
	commit := Commit()
	if commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, commit)
}

func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s", Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func Commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && dirty {
		revision += "-dirty"
	}
	return revision
}
