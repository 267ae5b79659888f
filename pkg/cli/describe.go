package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hostgrpc/hostgrpc/pkg/schema"
)

var (
	describeImports []string
)

var describeCmd = &cobra.Command{
	Use:   "describe PROTO [PROTO...]",
	Short: "Print the method table of .proto files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDescribe,
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().StringSliceVarP(&describeImports, "import-path", "I", nil, "Proto import path (repeatable)")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	table, err := schema.ParseFiles(args, describeImports)
	if err != nil {
		return err
	}

	for _, m := range table.Methods() {
		mode := "unary"
		switch {
		case m.ClientStreaming && m.ServerStreaming:
			mode = "bidi_stream"
		case m.ClientStreaming:
			mode = "client_stream"
		case m.ServerStreaming:
			mode = "server_stream"
		}
		cmd.Println(m.FullPath)
		cmd.Printf("  request:  %s\n", m.Input.FullName())
		cmd.Printf("  response: %s\n", m.Output.FullName())
		cmd.Printf("  mode:     %s\n", mode)
	}

	cmd.Println(fmt.Sprintf("%d method(s)", table.Len()))
	return nil
}
