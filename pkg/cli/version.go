package cli

import (
	"github.com/spf13/cobra"
)

// BuildInfo carries build-time version information.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var buildInfo = BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}

// SetBuildInfo records the build-time version information shown by the
// version command.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("hostgrpc %s (commit %s, built %s)\n",
			buildInfo.Version, buildInfo.Commit, buildInfo.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
