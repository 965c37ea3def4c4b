package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relayscrub/pkg/audit"
	"mercator-hq/relayscrub/pkg/cli"
	"mercator-hq/relayscrub/pkg/telemetry/health"
)

var runFlags struct {
	input         string
	listenAddress string
	rulesDir      string
	logLevel      string
	progress      bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Relay a stream of events",
	Long: `Read newline-delimited events, scrub them and write them to stdout.

Each input line is either a bare event or an envelope:

  {"project": "acme", "headers": {"traceparent": "00-..."}, "event": {...}}

Envelopes select the project whose rules apply and may carry W3C trace
context. Output lines have the shape of their input. Rejected events are
logged to stderr and dropped.

While running, rule files are reloaded on change when pii.watch is set and
on the pii.resync_schedule. When audit.enabled is set, one report per event
is stored and pruned on audit.prune_schedule. Metrics and health endpoints are served on
telemetry.metrics.listen_address:
  /metrics  Prometheus metrics
  /health   Liveness probe
  /ready    Readiness probe (rules for the default project are loaded)
  /version  Version information

Examples:
  # Relay stdin to stdout with default config
  relayscrub run < events.ndjson

  # Custom config and ops endpoint
  relayscrub run --config /etc/relayscrub/config.yaml --listen 127.0.0.1:9090

  # Validate config and rules without relaying
  relayscrub run --dry-run`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.input, "input", "i", "-", "input file (- for stdin)")
	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override the metrics and health listen address")
	runCmd.Flags().StringVarP(&runFlags.rulesDir, "rules", "r", "", "override the rule directory")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.progress, "progress", false, "report progress on stderr")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config and rules without relaying")
}

func runRelay(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(envOptions{
		rulesDir:       runFlags.rulesDir,
		logLevel:       runFlags.logLevel,
		assignEventIDs: true,
		logWriter:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer env.Close()

	cfg := env.config
	if runFlags.listenAddress != "" {
		cfg.Telemetry.Metrics.ListenAddress = runFlags.listenAddress
	}

	if runFlags.dryRun {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Configuration valid (%d project(s), version %s)\n",
			env.manager.Store().Len(), env.manager.Store().Version())
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if cfg.PII.Watch || cfg.PII.ResyncSchedule != "" {
		go func() {
			if err := env.manager.Watch(ctx); err != nil {
				env.logger.Error("Rule watching stopped", "error", err)
			}
		}()
	}

	if env.audit != nil {
		pruner := audit.NewPruner(env.audit, audit.RetentionFromConfig(&cfg.Audit), env.logger.Slog())
		if err := pruner.Start(ctx); err != nil {
			return cli.NewCommandError("run", err)
		}
		defer pruner.Stop()
	}

	if addr := cfg.Telemetry.Metrics.ListenAddress; addr != "" {
		srv, err := startOpsServer(env, addr)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				env.logger.Error("Ops server shutdown failed", "error", err)
			}
		}()
	}

	in, closeIn, err := openInput(runFlags.input, cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer closeIn()

	r := &relay{
		manager:  env.manager,
		scrubber: env.scrubber,
		logger:   env.logger,
		tracer:   env.tracer,
		maxLine:  cfg.Limits.MaxEventBytes * 2,
	}
	if runFlags.progress {
		r.progress = cli.NewProgressReporter(cmd.ErrOrStderr())
	}

	env.logger.Info("Relay started",
		"projects", env.manager.Store().Len(),
		"config_version", env.manager.Store().Version(),
	)

	stats, err := r.Stream(ctx, in, cmd.OutOrStdout())
	env.logger.Info("Relay stopped",
		"total", stats.Total,
		"scrubbed", stats.Scrubbed,
		"rejected", stats.Rejected,
	)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// startOpsServer serves metrics and health endpoints on addr.
func startOpsServer(env *environment, addr string) (*http.Server, error) {
	checker := health.New(health.DefaultCheckTimeout)
	checker.RegisterCheck("rules", env.manager.Ready)

	mux := http.NewServeMux()
	mux.Handle(env.config.Telemetry.Metrics.Path, env.metrics.Handler())
	health.Register(mux, checker, versionInfo())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.logger.Error("Ops server failed", "error", err)
		}
	}()

	env.logger.Info("Ops server listening", "address", ln.Addr().String())
	return srv, nil
}

func openInput(name string, stdin io.Reader) (io.Reader, func(), error) {
	if name == "" || name == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}
