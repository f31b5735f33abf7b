package contracts

import (
	"fmt"
	"runtime"
)

const (
	Version = "0.3.0"
	AppName = "Bike Sharing Dashboard"
)

// Set with -ldflags by build.go.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionString is the one-line identification printed by -version.
func VersionString() string {
	return fmt.Sprintf("%s v%s (built: %s, commit: %s, go: %s, %s/%s)",
		AppName, Version, BuildTime, GitCommit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
