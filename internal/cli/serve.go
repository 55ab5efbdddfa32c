package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/varq/internal/builtin"
	"github.com/roach88/varq/internal/config"
	"github.com/roach88/varq/internal/server"
)

// ServeOptions holds flags for the serve command. Flags that are set
// override the config file.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Listen     string
	Source     SourceOptions
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query API over HTTP",
		Long: `Serve the query API over HTTP.

Variants are loaded once at startup and again on POST /reload.

Examples:
  varq serve --db varq.db
  varq serve --config varq.yaml --listen :9090`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServeConfig(cmd, opts)
			if err != nil {
				_ = opts.formatter(cmd).Error(ErrCodeBadArgument, err.Error(), nil)
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			return runServe(cmd, opts, cfg)
		},
	}

	opts.register(cmd)
	return cmd
}

func (opts *ServeOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides config)")
	opts.Source.register(cmd, false)
}

// resolveServeConfig loads the config file (or defaults) and applies flag
// overrides.
func resolveServeConfig(cmd *cobra.Command, opts *ServeOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = opts.Listen
	}
	if flags.Changed("db") && flags.Changed("postgres") {
		return config.Config{}, fmt.Errorf("--db and --postgres are mutually exclusive")
	}
	if flags.Changed("db") {
		cfg.Store = config.Store{Driver: config.DriverSQLite, Path: opts.Source.Database}
	}
	if flags.Changed("postgres") {
		cfg.Store = config.Store{Driver: config.DriverPostgres, URL: opts.Source.Postgres}
	}
	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, opts *ServeOptions, cfg config.Config) error {
	logger := opts.logger(cmd.ErrOrStderr(), false)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	src := SourceOptions{Database: cfg.Store.Path}
	if cfg.Store.Driver == config.DriverPostgres {
		src = SourceOptions{Postgres: cfg.Store.URL}
	}
	upstream, err := src.open(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open variant store", err)
	}
	defer func() {
		if closeErr := upstream.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	srv := server.New(upstream, builtin.Capabilities(), cfg, logger)
	if _, err := srv.Reload(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to load variants", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
		case <-ctx.Done():
		}
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := srv.Listen(cfg.Listen); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
