package todosync

import (
	"fmt"
	"runtime"
	"strings"
)

// Version information
const (
	Version    = "0.3.0"
	APIVersion = "v1"

	// APIBasePath is the path prefix every todo API route lives under.
	APIBasePath = "/api/" + APIVersion
)

// Build describes the running binary.
type Build struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Platform  string
}

// BuildInfo contains build information
var BuildInfo = Build{
	Version:   Version,
	GoVersion: runtime.Version(),
	Platform:  runtime.GOOS + "/" + runtime.GOARCH,
}

// SetBuildInfo is called by the build process
func SetBuildInfo(commit, date, goVersion string) {
	BuildInfo.GitCommit = commit
	BuildInfo.BuildDate = date
	if goVersion != "" {
		BuildInfo.GoVersion = goVersion
	}
}

// ShortCommit returns the first seven characters of the commit hash.
func (b Build) ShortCommit() string {
	if len(b.GitCommit) > 7 {
		return b.GitCommit[:7]
	}
	return b.GitCommit
}

// UserAgent is sent with every API request, e.g. "todosync/0.3.0 (linux/amd64; abc1234)".
func UserAgent() string {
	details := []string{BuildInfo.Platform}
	if c := BuildInfo.ShortCommit(); c != "" {
		details = append(details, c)
	}
	return fmt.Sprintf("todosync/%s (%s)", BuildInfo.Version, strings.Join(details, "; "))
}

// VersionInfo returns formatted version information
func VersionInfo() string {
	return fmt.Sprintf("todosync %s (API %s)", BuildInfo.Version, APIVersion)
}

// FullVersionInfo returns detailed version information
func FullVersionInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "todosync %s\n", BuildInfo.Version)
	fmt.Fprintf(&b, "API:        %s (%s)\n", APIVersion, APIBasePath)
	fmt.Fprintf(&b, "Go Version: %s\n", BuildInfo.GoVersion)
	fmt.Fprintf(&b, "Platform:   %s\n", BuildInfo.Platform)
	if BuildInfo.GitCommit != "" {
		fmt.Fprintf(&b, "Git Commit: %s\n", BuildInfo.GitCommit)
	}
	if BuildInfo.BuildDate != "" {
		fmt.Fprintf(&b, "Build Date: %s\n", BuildInfo.BuildDate)
	}
	return b.String()
}
