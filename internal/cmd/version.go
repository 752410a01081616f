package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/steveyegge/autoprompter/internal/cmd.Version=...".
var (
	Version = "0.3.0"
	Build   = "dev"
	Commit  = ""
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:     "version",
	GroupID: GroupDiag,
	Short:   "Print version information",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), versionString(resolveCommitHash()))
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}

func versionString(commit string) string {
	if commit == "" {
		return fmt.Sprintf("ap version %s (%s)", Version, Build)
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	return fmt.Sprintf("ap version %s (%s: %s)", Version, Build, commit)
}

// resolveCommitHash prefers the ldflag and falls back to the VCS stamp go
// build embeds.
func resolveCommitHash() string {
	if Commit != "" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
