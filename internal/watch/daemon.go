// Package watch implements continuous verification: it observes schema
// directories, re-runs generation and compilation for every changed schema
// after a debounce window, records run history, optionally publishes run
// events, and periodically sweeps stale workspaces left by crashed runs.
package watch

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/harness"
	"git.home.luguber.info/inful/structgen/internal/history"
	"git.home.luguber.info/inful/structgen/internal/logfields"
	"git.home.luguber.info/inful/structgen/internal/metrics"
	"git.home.luguber.info/inful/structgen/internal/notify"
	"git.home.luguber.info/inful/structgen/internal/observability"
)

// Daemon drives watch mode for one process.
type Daemon struct {
	cfg      *config.Config
	harness  *harness.Harness
	store    *history.Store
	pub      *notify.Publisher
	recorder metrics.Recorder
	handler  http.Handler // metrics endpoint, optional

	collector *observability.MetricsCollector
	queue     chan string

	configFile     string
	configSnapshot string
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithHistory records every run in the given store.
func WithHistory(store *history.Store) Option {
	return func(d *Daemon) { d.store = store }
}

// WithPublisher publishes run events after every run.
func WithPublisher(pub *notify.Publisher) Option {
	return func(d *Daemon) { d.pub = pub }
}

// WithRecorder replaces the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(d *Daemon) { d.recorder = rec }
}

// WithMetricsHandler serves the given handler on the configured metrics
// address while the daemon runs.
func WithMetricsHandler(h http.Handler) Option {
	return func(d *Daemon) { d.handler = h }
}

// WithConfigFile watches the given configuration file and reports when a
// run-affecting setting changes while the daemon runs.
func WithConfigFile(path string) Option {
	return func(d *Daemon) { d.configFile = filepath.Clean(path) }
}

// New assembles a watch daemon around a harness.
func New(cfg *config.Config, h *harness.Harness, opts ...Option) *Daemon {
	d := &Daemon{
		cfg:       cfg,
		harness:   h,
		recorder:  metrics.NoopRecorder{},
		collector: observability.GetMetricsCollector(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.configFile != "" {
		d.configSnapshot = cfg.Snapshot()
	}
	return d
}

// Run watches the configured paths until the context is canceled. On return
// the session metrics summary has been logged.
func (d *Daemon) Run(ctx context.Context) error {
	wc := d.cfg.Watch
	if wc == nil || len(wc.Paths) == 0 {
		return errors.WatchError("watch mode requires at least one configured path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CategoryWatch, errors.SeverityFatal, "creating filesystem watcher")
	}
	defer func() { _ = watcher.Close() }()

	for _, path := range wc.Paths {
		if err := addDirsRecursive(watcher, path); err != nil {
			return err
		}
	}
	if d.configFile != "" {
		if err := watcher.Add(filepath.Dir(d.configFile)); err != nil {
			slog.Warn("Cannot watch configuration file", logfields.Path(d.configFile), logfields.Error(err))
		}
	}

	queueSize := wc.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	d.queue = make(chan string, queueSize)

	debounce, _ := time.ParseDuration(wc.Debounce)
	deb := newDebouncer(debounce, d.enqueue)
	defer deb.stop()

	workers := wc.ConcurrentRuns
	if workers <= 0 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx)
		}()
	}

	scheduler, err := d.startJanitor(ctx)
	if err != nil {
		return err
	}

	metricsServer := d.startMetricsServer()

	slog.Info("Watch mode started",
		slog.Any("paths", wc.Paths),
		slog.Int("workers", workers),
		slog.String("debounce", wc.Debounce))

	err = d.eventLoop(ctx, watcher, deb)

	if scheduler != nil {
		if shutdownErr := scheduler.Shutdown(); shutdownErr != nil {
			slog.Warn("Janitor scheduler shutdown failed", logfields.Error(shutdownErr))
		}
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = metricsServer.Shutdown(shutdownCtx)
		cancel()
	}
	wg.Wait()

	slog.Info("Watch session summary\n" + d.collector.GetSnapshot().FormatMetrics())
	return err
}

// eventLoop dispatches filesystem events until the context is done.
func (d *Daemon) eventLoop(ctx context.Context, watcher *fsnotify.Watcher, deb *debouncer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(watcher, ev, deb)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// handleEvent reacts to one filesystem event: new directories join the
// watch, schema file changes arm the debouncer.
func (d *Daemon) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, deb *debouncer) {
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(watcher, ev.Name); err != nil {
				slog.Warn("Cannot watch new directory", logfields.Path(ev.Name), logfields.Error(err))
			}
			return
		}
	}

	// The config file must win over the schema-extension check: a YAML
	// config edited in place would otherwise be queued as a schema.
	if d.configFile != "" && filepath.Clean(ev.Name) == d.configFile {
		if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
			d.checkConfigChange()
		}
		return
	}

	if !isSchemaFile(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
		slog.Debug("Schema change detected", logfields.Schema(ev.Name), slog.String("op", ev.Op.String()))
		deb.trigger(ev.Name)
	}
}

// checkConfigChange reloads the watched config file and reports whether a
// run-affecting setting changed since the last check. Running workers keep
// the settings they started with; operators restart to apply.
func (d *Daemon) checkConfigChange() bool {
	cfg, err := config.Load(d.configFile)
	if err != nil {
		slog.Warn("Configuration file changed but cannot be reloaded", logfields.Path(d.configFile), logfields.Error(err))
		return false
	}
	snapshot := cfg.Snapshot()
	if snapshot == d.configSnapshot {
		slog.Debug("Configuration file changed without run-affecting settings", logfields.Path(d.configFile))
		return false
	}
	d.configSnapshot = snapshot
	slog.Warn("Run-affecting configuration changed; restart watch mode to apply", logfields.Path(d.configFile))
	return true
}

// enqueue queues a schema for verification. When the queue is full the
// oldest pending entry is dropped: under a change storm the newest state of
// the tree is the one worth verifying.
func (d *Daemon) enqueue(path string) {
	d.collector.RecordQueuedChange()
	select {
	case d.queue <- path:
	default:
		select {
		case dropped := <-d.queue:
			slog.Warn("Verification queue full, dropping oldest", logfields.Schema(dropped))
			d.collector.RemoveQueuedChanges(1)
		default:
		}
		select {
		case d.queue <- path:
		default:
		}
	}
	d.recorder.SetWatchQueueDepth(len(d.queue))
}

// worker drains the verification queue until the context is done.
func (d *Daemon) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-d.queue:
			d.collector.RemoveQueuedChanges(1)
			d.recorder.SetWatchQueueDepth(len(d.queue))
			d.runVerification(ctx, path)
		}
	}
}

// runVerification executes one generate-and-compile run for a changed
// schema and records the outcome. Failures are logged, never fatal: the
// next change gets a fresh run.
func (d *Daemon) runVerification(ctx context.Context, schemaPath string) {
	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	d.collector.RecordRunStart(runID, schemaPath)

	req := harness.Request{
		Schema:           schemaPath,
		TargetPackage:    d.cfg.Generator.DefaultPackage,
		GenerateBuilders: d.cfg.Generator.GenerateBuilders,
		UsePrimitives:    d.cfg.Generator.UsePrimitives,
	}

	start := time.Now()
	dir, err := d.harness.Verify(ctx, req)
	duration := time.Since(start)

	outcome := "success"
	errText := ""
	switch {
	case err == nil:
		observability.InfoContext(ctx, "Verification run succeeded",
			logfields.Schema(schemaPath),
			logfields.DurationMS(float64(duration.Milliseconds())))
	case ctx.Err() != nil:
		outcome = "canceled"
	default:
		outcome = "failed"
		errText = err.Error()
		observability.WarnContext(ctx, "Verification run failed",
			logfields.Schema(schemaPath),
			logfields.Error(err))
	}

	d.collector.RecordRunEnd(duration, err == nil, schemaPath)
	d.recorder.IncRunOutcome(outcome)
	d.recorder.ObserveRunDuration(duration)

	record := history.Run{
		RunID:      runID,
		Schema:     schemaPath,
		Package:    req.TargetPackage,
		Outcome:    outcome,
		Workspace:  dir,
		Error:      errText,
		DurationMS: duration.Milliseconds(),
		StartedAt:  start,
	}
	if d.store != nil {
		if err := d.store.Record(ctx, record); err != nil {
			slog.Warn("Cannot record run history", logfields.RunID(runID), logfields.Error(err))
		}
	}
	if d.pub != nil {
		event := notify.RunEvent{
			RunID:      runID,
			Schema:     schemaPath,
			Package:    req.TargetPackage,
			Outcome:    outcome,
			Workspace:  dir,
			Error:      errText,
			DurationMS: duration.Milliseconds(),
		}
		if err := d.pub.PublishRun(event); err != nil {
			slog.Warn("Cannot publish run event", logfields.RunID(runID), logfields.Error(err))
		}
	}
}

// startJanitor schedules the stale-workspace sweep when configured.
func (d *Daemon) startJanitor(ctx context.Context) (gocron.Scheduler, error) {
	wc := d.cfg.Watch
	if wc.JanitorSchedule == "" {
		return nil, nil
	}

	maxAge := 24 * time.Hour
	if d.cfg.Workspace.StaleAfter != "" {
		if parsed, err := time.ParseDuration(d.cfg.Workspace.StaleAfter); err == nil && parsed > 0 {
			maxAge = parsed
		}
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryWatch, errors.SeverityFatal, "creating janitor scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(wc.JanitorSchedule, false),
		gocron.NewTask(func() {
			removed, sweepErr := Sweep(ctx, d.cfg.Workspace.BaseDir, maxAge)
			if sweepErr != nil {
				slog.Warn("Janitor sweep failed", logfields.Error(sweepErr))
				return
			}
			if removed > 0 {
				slog.Info("Janitor sweep complete", slog.Int("removed", removed))
			}
		}),
		gocron.WithName("workspace-janitor"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, errors.Wrap(err, errors.CategoryWatch, errors.SeverityFatal, "scheduling janitor job").
			WithContext("schedule", wc.JanitorSchedule)
	}

	scheduler.Start()
	slog.Info("Janitor scheduled", slog.String("schedule", wc.JanitorSchedule), slog.String("max_age", maxAge.String()))
	return scheduler, nil
}

// startMetricsServer exposes the metrics handler when both an address and a
// handler are configured.
func (d *Daemon) startMetricsServer() *http.Server {
	wc := d.cfg.Watch
	if wc.MetricsAddr == "" || d.handler == nil {
		return nil
	}

	path := "/metrics"
	if d.cfg.Monitoring != nil && d.cfg.Monitoring.Metrics.Path != "" {
		path = d.cfg.Monitoring.Metrics.Path
	}

	mux := http.NewServeMux()
	mux.Handle(path, d.handler)
	server := &http.Server{
		Addr:              wc.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("Metrics endpoint listening", slog.String("addr", wc.MetricsAddr), logfields.Path(path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("Metrics server stopped", logfields.Error(err))
		}
	}()
	return server
}

// addDirsRecursive watches dir and every directory below it.
func addDirsRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return errors.WatchError("cannot watch "+path).WithContext("cause", err.Error())
		}
		if !entry.IsDir() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return errors.WatchError("cannot watch "+path).WithContext("cause", err.Error())
		}
		return nil
	})
}

// isSchemaFile reports whether a path looks like a schema document.
func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
