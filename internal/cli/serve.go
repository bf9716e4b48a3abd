package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/dogstore/api"
	"github.com/input-output-hk/dogstore/idgen"
	"github.com/input-output-hk/dogstore/tracing"
	"github.com/input-output-hk/dogstore/validation"
	"github.com/input-output-hk/dogstore/workflow"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve POST /dogs, GET /dogs/{id} and GET /health.

The server shuts down gracefully on SIGINT or SIGTERM, waiting up to
server.shutdown_timeout for in-flight requests.

Example:
  dogstore serve --addr :8080 --table DogTable
  DOGSTORE_STORE_BACKEND=memory dogstore serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().String("backend", "", "store backend (dynamodb|memory)")
	_ = rootOpts.Viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = rootOpts.Viper.BindPFlag("store.backend", cmd.Flags().Lookup("backend"))

	return cmd
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.Config
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(ctx, cfg.Tracing)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	records, err := newRecordStore(ctx, cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create record store", err)
	}
	defer func() {
		if err := records.Close(); err != nil {
			logger.Error("failed to close record store", "backend", records.Name(), "error", err)
		}
	}()
	if err := records.HealthCheck(ctx); err != nil {
		logger.Warn("record store not ready", "backend", records.Name(), "error", err)
	}

	validator, err := validation.New()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compile schema", err)
	}

	orch := workflow.New(idgen.New(), records,
		workflow.WithLogger(logger),
		workflow.WithTracer(tp.Tracer()),
		workflow.WithRetryPolicy(cfg.RetryPolicy()),
	)

	handler := api.NewHandler(api.HandlerConfig{
		Validator:      validator,
		Runner:         orch,
		Records:        records,
		Health:         records,
		Logger:         logger,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	routes := handler.Routes()
	if tp.Enabled() {
		routes = tracing.Middleware(tp.Tracer(), routes)
	}

	srv, err := api.NewServer(api.ServerConfig{
		Addr:    cfg.Server.Addr,
		Handler: routes,
		Logger:  logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start server", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "graceful shutdown failed", err)
	}
	if err := <-errCh; err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped")
	return nil
}
