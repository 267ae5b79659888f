// hostgrpc CLI - serve and call unary gRPC methods from .proto definitions.
package main

import (
	"os"

	"github.com/hostgrpc/hostgrpc/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.SetBuildInfo(cli.BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
