package scrub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/relayscrub/pkg/config"
	"mercator-hq/relayscrub/pkg/telemetry/metrics"
	"mercator-hq/relayscrub/pkg/telemetry/tracing"
)

// Reload triggers, recorded in metrics and logs.
const (
	TriggerStartup = "startup"
	TriggerWatch   = "watch"
	TriggerResync  = "resync"
	TriggerManual  = "manual"
)

// Manager keeps the config store in sync with the rule directory. It
// loads every project file, compiles it and swaps the results into the
// store. A project whose file fails to load or compile keeps its last
// good snapshot.
type Manager struct {
	config  *config.PIIConfig
	loader  *Loader
	store   *ConfigStore
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	logger  *slog.Logger

	// mu serializes reloads
	mu            sync.Mutex
	lastLoadTime  time.Time
	lastLoadError error

	watchMu     sync.Mutex
	watchCancel context.CancelFunc
}

// NewManager creates a manager for the rule directory in cfg. collector
// may be nil.
func NewManager(cfg *config.PIIConfig, collector *metrics.Collector, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loaderConfig := DefaultLoaderConfig()
	if cfg.MaxFileSize > 0 {
		loaderConfig.MaxFileSize = cfg.MaxFileSize
	}

	tracer, err := tracing.New(&config.TracingConfig{})
	if err != nil {
		return nil, err
	}

	return &Manager{
		config:  cfg,
		loader:  NewLoader(loaderConfig),
		store:   NewConfigStore(collector),
		metrics: collector,
		tracer:  tracer,
		logger:  logger.With("component", "scrub.manager"),
	}, nil
}

// SetTracer makes reloads emit spans to tracer.
func (m *Manager) SetTracer(tracer *tracing.Tracer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tracer != nil {
		m.tracer = tracer
	}
}

// Store returns the store the manager publishes snapshots to.
func (m *Manager) Store() *ConfigStore {
	return m.store
}

// Load performs the initial load of the rule directory.
func (m *Manager) Load() error {
	return m.Reload(TriggerStartup)
}

// Reload reads the rule directory and publishes the result. Projects
// whose file disappeared are dropped. The returned error lists every file
// or project that failed; everything else is applied.
func (m *Manager) Reload(trigger string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	_, span := m.tracer.Start(context.Background(), "scrub.reload")
	defer span.End()
	span.SetAttributes(attribute.String(tracing.AttrReloadTrigger, trigger))

	m.metrics.RecordReload(trigger)
	m.logger.Info("Reloading rules", "dir", m.config.Dir, "trigger", trigger)

	files, err := m.loader.LoadDir(m.config.Dir)
	if files == nil {
		tracing.SetError(span, err)
		tracing.SetStatus(span, err)
		m.lastLoadError = err
		m.logger.Error("Failed to read rule directory, keeping previous rules",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	errList := &ErrorList{}
	var loadErrs *ErrorList
	switch {
	case errors.As(err, &loadErrs):
		for _, e := range loadErrs.Errors {
			errList.Add(e)
		}
	default:
		errList.Add(err)
	}

	next := make(map[string]*Snapshot, len(files))

	// Projects whose file failed to load keep their snapshot.
	for _, e := range errList.Errors {
		var le *LoadError
		if !errors.As(e, &le) {
			continue
		}
		project := ProjectName(le.FilePath)
		if prev, ok := m.store.Get(project); ok && prev.Source == le.FilePath {
			next[project] = prev
		}
		m.metrics.RecordConfigLoad(project, e)
	}

	for _, project := range sortedProjects(files) {
		file := files[project]
		snap, err := Compile(project, file.Path, file.Config)
		m.metrics.RecordConfigLoad(project, err)
		if err != nil {
			errList.Add(err)
			if prev, ok := m.store.Get(project); ok {
				next[project] = prev
				m.logger.Error("Invalid rule configuration, keeping previous snapshot",
					"project", project,
					"version", prev.Version,
					"error", err,
				)
			}
			continue
		}

		// Unchanged content keeps its snapshot.
		if prev, ok := m.store.Get(project); ok && prev.Version == snap.Version && prev.Source == snap.Source {
			snap = prev
		}
		next[project] = snap
	}

	m.store.Replace(next)
	m.lastLoadTime = time.Now()
	m.lastLoadError = errList.ToError()

	span.SetAttributes(attribute.Int(tracing.AttrProjectCount, len(next)))
	tracing.SetError(span, m.lastLoadError)
	tracing.SetStatus(span, m.lastLoadError)

	if m.lastLoadError != nil {
		m.logger.Warn("Rules reloaded with errors",
			"projects", len(next),
			"errors", len(errList.Errors),
			"version", m.store.Version(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		m.logger.Info("Rules reloaded successfully",
			"projects", len(next),
			"version", m.store.Version(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	return m.lastLoadError
}

// Snapshot returns the snapshot to scrub an event of project with. Events
// of unknown projects, and events naming no project, use the default
// project.
func (m *Manager) Snapshot(project string) (*Snapshot, error) {
	if project != "" {
		if snap, ok := m.store.Get(project); ok {
			return snap, nil
		}
	}
	if snap, ok := m.store.Get(m.config.DefaultProject); ok {
		return snap, nil
	}
	if project == "" {
		project = m.config.DefaultProject
	}
	return nil, fmt.Errorf("%w for project %q", ErrNoConfig, project)
}

// Ready reports whether the default project has a snapshot. It is used
// as a readiness check.
func (m *Manager) Ready(ctx context.Context) error {
	if _, ok := m.store.Get(m.config.DefaultProject); !ok {
		return fmt.Errorf("no configuration for project %q", m.config.DefaultProject)
	}
	return nil
}

// LastLoad returns the time and error of the last reload.
func (m *Manager) LastLoad() (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastLoadTime, m.lastLoadError
}

// Watch reloads the rules on file changes and, when a resync schedule is
// configured, periodically. It blocks until ctx is cancelled or Close is
// called.
func (m *Manager) Watch(ctx context.Context) error {
	m.watchMu.Lock()
	if m.watchCancel != nil {
		m.watchMu.Unlock()
		return fmt.Errorf("watch already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	m.watchCancel = cancel
	m.watchMu.Unlock()
	defer cancel()

	if !m.config.Watch && m.config.ResyncSchedule == "" {
		return fmt.Errorf("neither rule watching nor resync is enabled in configuration")
	}

	if m.config.ResyncSchedule != "" {
		resyncer, err := NewResyncer(m.config.ResyncSchedule, func() {
			if err := m.Reload(TriggerResync); err != nil {
				m.logger.Error("Scheduled rule resync failed", "error", err)
			}
		}, m.logger)
		if err != nil {
			return err
		}
		if err := resyncer.Start(ctx); err != nil {
			return err
		}
		defer resyncer.Stop()
	}

	if !m.config.Watch {
		<-ctx.Done()
		return nil
	}

	watcher, err := NewWatcher(m.config.Dir, m.config.Debounce, m.loader.IsRuleFile, m.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			m.logger.Error("Failed to stop rule watcher", "error", err)
		}
	}()

	return watcher.Watch(ctx, func() {
		if err := m.Reload(TriggerWatch); err != nil {
			m.logger.Error("Rule reload failed", "error", err)
		}
	})
}

// Close stops watching.
func (m *Manager) Close() error {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	return nil
}
