// Package cli implements the hostgrpc command-line interface.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hostgrpc/hostgrpc/pkg/logging"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "hostgrpc",
	Short: "Embed gRPC unary services and clients driven by .proto definitions",
	Long: `hostgrpc serves and calls unary gRPC methods described by plain .proto
files, without generated code. Handlers and responses are wired at runtime
from parsed service definitions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
}

// newLogger builds the operational logger from the global flags.
func newLogger() *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(logLevel),
		Format: logging.ParseFormat(logFormat),
	})
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
