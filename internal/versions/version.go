// Package versions provides build information for the appearance server binaries.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	unknownStr  = "unknown"
	releaseType = "release"
)

// Set at build time with -ldflags "-X github.com/stacklok/appearance-server/internal/versions.Version=..."
var (
	// Version is the released version, "dev" for local builds
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = unknownStr
	// BuildDate is the RFC 3339 time the binary was built
	BuildDate = unknownStr
	// BuildType is "release" for official builds; anything else is a development build
	BuildType = "development"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	BuildType string `json:"build_type"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// IsRelease reports whether this is an official release build
func (v VersionInfo) IsRelease() bool {
	return v.BuildType == releaseType
}

// String renders the info on one line for the version command
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s, %s)",
		v.Version, v.Commit, v.BuildDate, v.GoVersion, v.Platform)
}

// GetVersionInfo returns the build information of the running binary
func GetVersionInfo() VersionInfo {
	var settings []debug.BuildSetting
	if info, ok := debug.ReadBuildInfo(); ok {
		settings = info.Settings
	}
	return resolve(Version, Commit, BuildDate, BuildType, settings)
}

// resolve fills dev builds from VCS stamping and normalizes the build date.
func resolve(version, commit, buildDate, buildType string, settings []debug.BuildSetting) VersionInfo {
	if strings.HasPrefix(version, "dev") {
		for _, s := range settings {
			switch s.Key {
			case "vcs.revision":
				if commit == unknownStr {
					commit = s.Value
				}
			case "vcs.time":
				if buildDate == unknownStr {
					buildDate = s.Value
				}
			}
		}
	}

	if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
		buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
	}

	if version == "dev" {
		version = fmt.Sprintf("build-%.*s", 8, commit)
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		BuildType: buildType,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
