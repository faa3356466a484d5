package obs

import "runtime"

// Set at link time with -ldflags "-X backoffice.app/internal/obs.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"goVersion"`
}

func Build() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, GoVersion: runtime.Version()}
}
