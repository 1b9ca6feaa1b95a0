// Package buildinfo reports which build of skyavatar is running.
//
// Release builds stamp the values with ldflags:
//
//	go build -ldflags "-X github.com/nornoe/skyavatar/pkg/buildinfo.Version=v1.0.0"
//
// When nothing is stamped, Commit and Date fall back to the VCS settings the
// go tool embeds in the binary.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

var vcsOnce sync.Once

func fillFromVCS() {
	vcsOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "" {
					Commit = s.Value
				}
			case "vcs.time":
				if Date == "" {
					Date = s.Value
				}
			}
		}
	})
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// String returns the build information as three lines.
func String() string {
	fillFromVCS()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, orUnknown(Commit), orUnknown(Date))
}

// Template is the cobra version template.
func Template() string {
	fillFromVCS()
	return fmt.Sprintf("{{.Name}} %s (%s, %s)\n", Version, orUnknown(Commit), orUnknown(Date))
}

// UserAgent is sent on outbound requests to the repository service.
func UserAgent() string {
	return "skyavatar/" + Version
}
