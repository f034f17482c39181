package version

import (
	"bytes"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Contains(t, Full(), Info().Commit)
	require.NotEmpty(t, Info().GoVersion)
}

// TestFromBuildInfo prefers -ldflags values and falls back to the VCS stamp.
func TestFromBuildInfo(t *testing.T) {
	t.Parallel()

	info := &debug.BuildInfo{
		GoVersion: "go1.25.1",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	b := fromBuildInfo("1.2.3", "", "", info)
	require.Equal(t, "0123456", b.Commit)
	require.Equal(t, "2026-10-01T12:00:00Z", b.BuildTime)
	require.True(t, b.Modified)
	require.Equal(t, "1.2.3 (commit 0123456-dirty, built 2026-10-01T12:00:00Z, go1.25.1)", b.String())

	b = fromBuildInfo("1.2.3", "feedbee", "today", info)
	require.Equal(t, "feedbee", b.Commit)
	require.Equal(t, "today", b.BuildTime)

	b = fromBuildInfo("1.2.3", "", "", nil)
	require.Equal(t, "none", b.Commit)
	require.Equal(t, "unknown", b.BuildTime)
	require.Equal(t, runtime.Version(), b.GoVersion)
	require.False(t, b.Modified)
}

// TestAttachCobraVersionCommand runs the attached subcommand.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "alarm-gateway"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "alarm-gateway "+Short())
	require.Contains(t, out.String(), "commit ")
}

// TestVersionCommand_Short prints only the semantic version.
func TestVersionCommand_Short(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "alarm-probe"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})

	require.NoError(t, root.Execute())
	require.Equal(t, Short()+"\n", out.String())
}
