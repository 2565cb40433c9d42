package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the service current released version.
// This value can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/hrygo/keypoints/internal/version.Version=0.3.0"
var Version = "0.1.0"

// DevVersion is reported while running in dev mode.
var DevVersion = Version + "-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" {
		return DevVersion
	}
	return Version
}

// IsValid reports whether v is a semantic version without the leading "v".
func IsValid(v string) bool {
	return semver.IsValid("v" + strings.TrimPrefix(v, "v"))
}

// String returns the version string with the short commit hash when known.
func String(mode string) string {
	v := GetCurrentVersion(mode)
	if GitCommit != "" && GitCommit != "unknown" {
		shortCommit := GitCommit
		if len(shortCommit) > 8 {
			shortCommit = shortCommit[:8]
		}
		v = fmt.Sprintf("%s+%s", v, shortCommit)
	}
	return v
}
