package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/hostgrpc/hostgrpc/pkg/client"
	"github.com/hostgrpc/hostgrpc/pkg/codec"
	"github.com/hostgrpc/hostgrpc/pkg/schema"
)

var (
	callTarget   string
	callProtos   []string
	callImports  []string
	callData     string
	callMetadata []string
	callTimeout  time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call METHOD",
	Short: "Invoke a unary method",
	Long: `Call invokes a unary method by its simple rpc name. The request message
is built from the --data JSON object, matched by field name against the
request message schema.`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVarP(&callTarget, "target", "t", "127.0.0.1:50051", "Server address (host:port)")
	callCmd.Flags().StringSliceVar(&callProtos, "proto", nil, "Path to a .proto file (repeatable)")
	callCmd.Flags().StringSliceVarP(&callImports, "import-path", "I", nil, "Proto import path (repeatable)")
	callCmd.Flags().StringVarP(&callData, "data", "d", "{}", "Request body as a JSON object")
	callCmd.Flags().StringArrayVarP(&callMetadata, "metadata", "m", nil, "Metadata pair as key=value (repeatable, order preserved)")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 0, "Per-call deadline (default 15s)")
}

func runCall(cmd *cobra.Command, args []string) error {
	if len(callProtos) == 0 {
		return fmt.Errorf("cli: at least one --proto file is required")
	}

	table, err := schema.ParseFiles(callProtos, callImports)
	if err != nil {
		return err
	}

	methodName := args[0]
	if table.Get(methodName) == nil {
		return fmt.Errorf("cli: method %q not found in the given proto files", methodName)
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(callData), &fields); err != nil {
		return fmt.Errorf("cli: --data must be a JSON object: %w", err)
	}

	md, err := parseMetadataFlags(callMetadata)
	if err != nil {
		return err
	}

	ch := client.NewChannel(callTarget)
	defer ch.Close()
	ch.SetLogger(newLogger())

	stubs, err := client.NewStubs(table, ch, codec.Protobuf{})
	if err != nil {
		return err
	}
	stub := stubs[methodName]

	req, err := stub.Build(fields)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, callTimeout)
		defer cancel()
	}

	resp, err := stub.Call(ctx, req, md...)
	if err != nil {
		var se *client.StatusError
		if errors.As(err, &se) {
			printStatusError(cmd, se)
		}
		return err
	}

	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(resp)
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}

// parseMetadataFlags turns repeated key=value flags into the flat ordered
// list the call core expects.
func parseMetadataFlags(pairs []string) ([]string, error) {
	var md []string
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("cli: metadata must be key=value, got %q", pair)
		}
		md = append(md, key, value)
	}
	return md, nil
}

// printStatusError renders a non-OK status with any structured detail
// payloads the server attached.
func printStatusError(cmd *cobra.Command, se *client.StatusError) {
	cmd.PrintErrf("status: %s\ndetails: %s\n", se.Code, se.Details)
	if se.Proto == nil {
		return
	}

	for _, detail := range status.FromProto(se.Proto).Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			cmd.PrintErrf("  error info: reason=%s domain=%s\n", d.GetReason(), d.GetDomain())
		case *errdetails.BadRequest:
			for _, v := range d.GetFieldViolations() {
				cmd.PrintErrf("  field violation: %s: %s\n", v.GetField(), v.GetDescription())
			}
		case *errdetails.RetryInfo:
			cmd.PrintErrf("  retry after: %s\n", d.GetRetryDelay().AsDuration())
		case *errdetails.LocalizedMessage:
			cmd.PrintErrf("  message (%s): %s\n", d.GetLocale(), d.GetMessage())
		default:
			cmd.PrintErrf("  detail: %v\n", detail)
		}
	}
}
