package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/stooppolitics/stoop-cms/cmd.Version=..."
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stoop version",
	Long: `Print the release, the commit it was built from and the Go runtime.

Without ldflags the commit comes from the VCS stamp Go embeds in the binary.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		writeVersion(cmd.OutOrStdout(), currentBuild(), short)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "print just the version number")
}

// build describes the running binary
type build struct {
	version string
	commit  string
	date    string
	dirty   bool
	goVer   string
	target  string
}

func currentBuild() build {
	b := build{
		version: Version,
		commit:  Commit,
		date:    BuildDate,
		goVer:   runtime.Version(),
		target:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.commit == "" {
				b.commit = s.Value
			}
		case "vcs.time":
			if b.date == "" {
				b.date = s.Value
			}
		case "vcs.modified":
			b.dirty = s.Value == "true"
		}
	}
	return b
}

func writeVersion(w io.Writer, b build, short bool) {
	if short {
		fmt.Fprintf(w, "v%s\n", b.version)
		return
	}

	commit := b.commit
	switch {
	case commit == "":
		commit = "unknown"
	case len(commit) > 12:
		commit = commit[:12]
	}
	if b.dirty {
		commit += "+dirty"
	}
	date := b.date
	if date == "" {
		date = "unknown"
	}

	fmt.Fprintf(w, "stoop v%s\n", b.version)
	fmt.Fprintf(w, "  commit  %s\n", commit)
	fmt.Fprintf(w, "  built   %s\n", date)
	fmt.Fprintf(w, "  go      %s %s\n", b.goVer, b.target)
}
