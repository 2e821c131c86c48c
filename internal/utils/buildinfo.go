package utils

import "runtime/debug"

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
)

// Version is overridden at link time with -ldflags "-X github.com/temirov/snapsource/internal/utils.Version=v1.2.3".
var Version = ""

// GetApplicationVersion reports the link-time version when present and otherwise the
// module version recorded in the Go build information.
func GetApplicationVersion() string {
	if Version != "" {
		return Version
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	return unknownVersion
}
