package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"mercator-hq/relayscrub/pkg/audit"
	"mercator-hq/relayscrub/pkg/cli"
	"mercator-hq/relayscrub/pkg/config"
	"mercator-hq/relayscrub/pkg/scrub"
	"mercator-hq/relayscrub/pkg/telemetry/logging"
	"mercator-hq/relayscrub/pkg/telemetry/metrics"
	"mercator-hq/relayscrub/pkg/telemetry/tracing"
)

// environment holds the components shared by the scrub and run commands.
type environment struct {
	config   *config.Config
	logger   *logging.Logger
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	manager  *scrub.Manager
	scrubber *scrub.Scrubber
	audit    audit.Storage
}

// envOptions are the command line overrides applied to the configuration.
type envOptions struct {
	rulesDir       string
	logLevel       string
	assignEventIDs bool
	logWriter      io.Writer
}

// loadConfig loads the configuration file named by --config, or the
// built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}

// newEnvironment wires logging, metrics, tracing and the rule manager, and
// performs the initial rule load. Rule errors are logged; they fail the
// command only when no rules could be loaded at all.
func newEnvironment(opts envOptions) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.rulesDir != "" {
		cfg.PII.Dir = opts.rulesDir
	}
	if opts.logLevel != "" {
		cfg.Telemetry.Logging.Level = opts.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logCfg := logging.FromConfig(&cfg.Telemetry.Logging)
	logCfg.Writer = opts.logWriter
	if logCfg.Writer == nil {
		logCfg.Writer = os.Stderr
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	env := &environment{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
	}

	env.tracer, err = tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		env.Close()
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	env.manager, err = scrub.NewManager(&cfg.PII, env.metrics, logger.Slog())
	if err != nil {
		env.Close()
		return nil, err
	}
	env.manager.SetTracer(env.tracer)

	if err := env.manager.Load(); err != nil {
		if env.manager.Store().Len() == 0 {
			env.Close()
			return nil, cli.NewConfigError("pii.dir", fmt.Sprintf("no usable rules: %v", err))
		}
		logger.Warn("Some rule files could not be loaded", "error", err)
	}

	if cfg.Audit.Enabled {
		env.audit, err = audit.Open(&cfg.Audit, logger.Slog())
		if err != nil {
			env.Close()
			return nil, cli.NewConfigError("audit", err.Error())
		}
	}

	scrubOpts := scrub.OptionsFromConfig(&cfg.Limits)
	scrubOpts.AssignEventIDs = opts.assignEventIDs
	scrubOpts.Logger = logger
	scrubOpts.Metrics = env.metrics
	scrubOpts.Tracer = env.tracer
	scrubOpts.Audit = env.audit
	env.scrubber = scrub.NewScrubber(scrubOpts)

	return env, nil
}

// Close flushes traces and logs and closes the audit store.
func (e *environment) Close() error {
	var errs []error
	if e.manager != nil {
		errs = append(errs, e.manager.Close())
	}
	if e.audit != nil {
		errs = append(errs, e.audit.Close())
	}
	if e.tracer != nil {
		errs = append(errs, e.tracer.Shutdown(context.Background()))
	}
	if e.logger != nil {
		errs = append(errs, e.logger.Shutdown())
	}
	return errors.Join(errs...)
}
