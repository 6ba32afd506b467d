// Package version reports what build of vendorgate is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set by ldflags at release time; a source build falls back to the
// module's embedded VCS info.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the full build description, shaped for --json output
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo assembles the build description, preferring ldflags values
// over whatever the toolchain stamped into the binary.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}

	return info
}

func (i Info) String() string {
	commit := i.Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	if commit == "" {
		commit = "unknown"
	}
	return fmt.Sprintf("vendorgate %s (%s) %s %s", i.Version, commit, i.GoVersion, i.Platform)
}

// Short returns just the version number
func (i Info) Short() string {
	return i.Version
}
