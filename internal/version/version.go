package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the short git SHA set through -ldflags. When left empty it
	// is taken from the VCS stamp the Go toolchain embeds.
	Commit = ""
	// BuildTime is the UTC build timestamp set through -ldflags, with the
	// VCS commit time as fallback.
	BuildTime = ""
)

// shortCommitLength matches `git rev-parse --short`.
const shortCommitLength = 7

// Build is the resolved build metadata.
type Build struct {
	Version   string
	Commit    string
	BuildTime string
	// Modified is set when the working tree had uncommitted changes.
	Modified  bool
	GoVersion string
}

//nolint:gochecknoglobals // Build info never changes during a process lifetime.
var resolve = sync.OnceValue(func() Build {
	return fromBuildInfo(Version, Commit, BuildTime, readBuildInfo())
})

func readBuildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	return info
}

// fromBuildInfo fills the metadata not set through -ldflags from info.
func fromBuildInfo(version, commit, buildTime string, info *debug.BuildInfo) Build {
	b := Build{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	if info != nil {
		if info.GoVersion != "" {
			b.GoVersion = info.GoVersion
		}

		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if b.Commit == "" {
					b.Commit = s.Value
				}
			case "vcs.time":
				if b.BuildTime == "" {
					b.BuildTime = s.Value
				}
			case "vcs.modified":
				b.Modified = s.Value == "true"
			}
		}
	}

	if len(b.Commit) > shortCommitLength {
		b.Commit = b.Commit[:shortCommitLength]
	}

	if b.Commit == "" {
		b.Commit = "none"
	}

	if b.BuildTime == "" {
		b.BuildTime = "unknown"
	}

	return b
}

// Info returns the build metadata of the running binary.
func Info() Build {
	return resolve()
}

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit, build time and Go version, as
// printed by `version`.
func Full() string {
	return Info().String()
}

func (b Build) String() string {
	commit := b.Commit
	if b.Modified {
		commit += "-dirty"
	}

	return fmt.Sprintf("%s (commit %s, built %s, %s)", b.Version, commit, b.BuildTime, b.GoVersion)
}
