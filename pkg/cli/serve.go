package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/proto"

	"github.com/hostgrpc/hostgrpc/pkg/codec"
	"github.com/hostgrpc/hostgrpc/pkg/schema"
	"github.com/hostgrpc/hostgrpc/pkg/server"
)

var (
	serveConfigPath string
	serveProtos     []string
	serveImports    []string
	serveAddress    string
	serveDuration   time.Duration
	servePortFile   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve unary methods from .proto definitions",
	Long: `Serve binds a gRPC server and answers the unary methods declared in the
given .proto files. Replies come from the method configuration in the config
file; unconfigured methods reply with an empty response message.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to YAML config file")
	serveCmd.Flags().StringSliceVar(&serveProtos, "proto", nil, "Path to a .proto file (repeatable)")
	serveCmd.Flags().StringSliceVarP(&serveImports, "import-path", "I", nil, "Proto import path (repeatable)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "127.0.0.1:50051", "Bind address (host:port, port 0 = ephemeral)")
	serveCmd.Flags().DurationVar(&serveDuration, "duration", 0, "Wall-clock lifetime (0 = run until interrupted)")
	serveCmd.Flags().StringVar(&servePortFile, "port-file", "", "Write the bound port to this file on bind")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg := &ServeConfig{
		Protos:      serveProtos,
		ImportPaths: serveImports,
		Address:     serveAddress,
		PortFile:    servePortFile,
	}
	if serveDuration > 0 {
		cfg.Duration = serveDuration.String()
	}
	if serveConfigPath != "" {
		loaded, err := LoadServeConfig(serveConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cfg.Address == "" {
			cfg.Address = serveAddress
		}
	}
	// SIGINT/SIGTERM are the cooperative interrupt.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

// serve parses the configured protos and runs the server until the context
// is cancelled or the configured duration elapses.
func serve(ctx context.Context, cfg *ServeConfig, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	table, err := schema.ParseFiles(cfg.Protos, cfg.ImportPaths)
	if err != nil {
		return err
	}

	dispatch, err := buildDispatch(table, cfg)
	if err != nil {
		return err
	}

	hooks := server.HookFuncs{
		Bind: func(port int) {
			log.Info("bound", "port", port)
			if cfg.PortFile != "" {
				if err := os.WriteFile(cfg.PortFile, []byte(strconv.Itoa(port)), 0o644); err != nil {
					log.Warn("failed to write port file", "path", cfg.PortFile, "error", err)
				}
			}
		},
	}

	srv, err := server.New(dispatch, &server.Config{
		Address:  cfg.Address,
		Duration: cfg.ParsedDuration(),
		Hooks:    hooks,
	})
	if err != nil {
		return err
	}
	srv.SetLogger(log)

	log.Info("serving", "address", cfg.Address, "methods", dispatch.Len())
	return srv.Run(ctx)
}

// buildDispatch registers a handler per unary method in the table,
// following the per-method configuration.
func buildDispatch(table *schema.MethodTable, cfg *ServeConfig) (*server.DispatchTable, error) {
	pc := codec.Protobuf{}
	dispatch := server.NewDispatchTable()

	for _, m := range table.Methods() {
		if !m.IsUnary() {
			continue
		}

		mc := cfg.Methods[m.SimpleName]
		var handler server.Handler
		switch {
		case mc.Echo:
			if m.Input.FullName() != m.Output.FullName() {
				return nil, fmt.Errorf("cli: method %s cannot echo: request type %s differs from response type %s",
					m.SimpleName, m.Input.FullName(), m.Output.FullName())
			}
			handler = func(_ context.Context, request []byte) ([]byte, error) {
				return request, nil
			}
		case mc.Response != nil:
			method := m
			fields := mc.Response
			handler = server.Wrap(method, pc, func(context.Context, proto.Message) (proto.Message, error) {
				return codec.BuildMessage(method.Output, fields)
			})
		default:
			handler = func(context.Context, []byte) ([]byte, error) {
				return nil, nil
			}
		}

		if err := dispatch.Register(m, handler); err != nil {
			return nil, err
		}
	}
	return dispatch, nil
}
