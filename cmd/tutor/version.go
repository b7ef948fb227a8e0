// In file: cmd/tutor/version.go
package main

import (
	"fmt"
	"runtime"

	cacheversion "github.com/dileep-u-k/tutor-director/internal/version"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type BuildInfo struct {
	Version, BuildDate, GitCommit, GoVersion, Platform, Components string
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:    version,
		BuildDate:  buildDate,
		GitCommit:  gitCommit,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Components: cacheversion.Fingerprint(),
	}
}
