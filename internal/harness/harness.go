// Package harness composes schema resolution, workspace provisioning, code
// generation, compilation and artifact loading into the one-shot
// generate-and-compile pipeline. Each invocation owns a disposable workspace
// whose removal is scheduled at creation time; nothing is rolled back
// mid-pipeline, failed runs simply leave the workspace for exit cleanup.
package harness

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/structgen/internal/compiler"
	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/generator"
	"git.home.luguber.info/inful/structgen/internal/loader"
	"git.home.luguber.info/inful/structgen/internal/logfields"
	"git.home.luguber.info/inful/structgen/internal/metrics"
	"git.home.luguber.info/inful/structgen/internal/observability"
	"git.home.luguber.info/inful/structgen/internal/retry"
	"git.home.luguber.info/inful/structgen/internal/schemaloc"
	"git.home.luguber.info/inful/structgen/internal/workspace"
)

// Stage names used in metrics and logs.
const (
	StageGenerate = "generate"
	StageCompile  = "compile"
	StageLoad     = "load"
)

// Request describes one generation run. It is consumed once.
type Request struct {
	// Schema is the source location in any form the resolver accepts.
	Schema string
	// TargetPackage is the dotted package generated types live under.
	TargetPackage string
	// RootName overrides the root type name derived from the schema.
	RootName string
	// GenerateBuilders adds fluent WithX setters to generated types.
	GenerateBuilders bool
	// UsePrimitives emits value types for optional scalars instead of pointers.
	UsePrimitives bool
}

// SourceCompiler compiles everything under a directory, in place.
type SourceCompiler interface {
	Compile(ctx context.Context, dir string) error
}

// Harness runs the generate-and-compile pipeline.
type Harness struct {
	cfg      *config.Config
	resolver *schemaloc.Resolver
	executor generator.Executor
	compiler SourceCompiler
	recorder metrics.Recorder

	// newLoader builds the loader handle over a compiled workspace.
	// Replaceable so tests can run the pipeline without plugin support.
	newLoader func(dir string) (*loader.Loader, error)
}

// Option customizes a Harness.
type Option func(*Harness)

// WithResolver replaces the schema resolver.
func WithResolver(r *schemaloc.Resolver) Option {
	return func(h *Harness) { h.resolver = r }
}

// WithExecutor replaces the generator invoked for each run.
func WithExecutor(e generator.Executor) Option {
	return func(h *Harness) { h.executor = e }
}

// WithCompiler replaces the source compiler.
func WithCompiler(c SourceCompiler) Option {
	return func(h *Harness) { h.compiler = c }
}

// WithRecorder replaces the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(h *Harness) { h.recorder = r }
}

// WithLoaderFactory replaces how loader handles are built from compiled
// workspaces.
func WithLoaderFactory(fn func(dir string) (*loader.Loader, error)) Option {
	return func(h *Harness) { h.newLoader = fn }
}

// DefaultResolver builds the schema resolver a harness uses when none is
// injected: remote fetches cached next to the workspaces, a ./schemas
// search root for bare names when that directory exists.
func DefaultResolver(cfg *config.Config) *schemaloc.Resolver {
	r := schemaloc.NewResolver(defaultCacheDir(cfg), retry.FromConfig(cfg.Retry))
	if info, err := os.Stat("schemas"); err == nil && info.IsDir() {
		r.AddSearchRoot("schemas", os.DirFS("schemas"))
	}
	return r
}

// New assembles a harness from configuration. The default collaborators are
// the reference generator, the Go toolchain compiler and the plugin loader.
func New(cfg *config.Config, opts ...Option) *Harness {
	h := &Harness{
		cfg:      cfg,
		resolver: DefaultResolver(cfg),
		executor: generator.New(),
		compiler: compiler.New(cfg.Compiler),
		recorder: metrics.NoopRecorder{},
	}
	h.newLoader = func(dir string) (*loader.Loader, error) {
		var lopts []loader.Option
		if cfg.Loader.SymbolName != "" {
			lopts = append(lopts, loader.WithSymbol(cfg.Loader.SymbolName))
		}
		return loader.New(dir, lopts...)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Generate resolves the schema, provisions a fresh workspace, and invokes
// the generator into it. Schema resolution failures are precondition errors
// surfaced before any workspace exists; everything the generator itself
// reports comes back as a single generation-category error. Returns the
// populated workspace path.
func (h *Harness) Generate(ctx context.Context, req Request) (string, error) {
	ctx = observability.WithSchema(ctx, req.Schema)
	ctx, span := observability.GetGlobalTracer().StartStageSpan(ctx, StageGenerate, "")
	start := time.Now()

	dir, err := h.generate(ctx, req)

	h.finishStage(ctx, StageGenerate, start, err)
	observability.EndSpan(span, err)
	return dir, err
}

func (h *Harness) generate(ctx context.Context, req Request) (string, error) {
	resolved, err := h.resolver.Resolve(ctx, req.Schema)
	if err != nil {
		// Precondition violation: no workspace is created for it.
		return "", err
	}

	targetPackage := req.TargetPackage
	if targetPackage == "" {
		targetPackage = h.cfg.Generator.DefaultPackage
	}

	mgr := workspace.NewManager(h.cfg.Workspace.BaseDir).WithKeep(h.cfg.Workspace.Keep)
	if err := mgr.Create(); err != nil {
		return "", errors.WorkspaceError("create", err)
	}
	dir := mgr.GetPath()

	genCfg := generator.Config{
		SourcePath:       resolved.LocalPath,
		OutputDir:        dir,
		TargetPackage:    targetPackage,
		RootName:         req.RootName,
		GenerateBuilders: req.GenerateBuilders,
		UsePrimitives:    req.UsePrimitives,
		Project:          generator.StubProject{},
	}
	if err := h.executor.Execute(ctx, genCfg); err != nil {
		// The workspace keeps whatever was written; it is disposable and
		// already scheduled for exit cleanup.
		return "", errors.GenerationFailed(req.Schema, err).WithContext("workspace", dir)
	}

	observability.InfoContext(ctx, "Generated sources", logfields.Workspace(dir), logfields.Package(targetPackage))
	return dir, nil
}

// Compile runs the toolchain over a generated workspace and wraps the result
// in a loader handle chained to the ambient registry.
func (h *Harness) Compile(ctx context.Context, dir string) (*loader.Loader, error) {
	ctx, span := observability.GetGlobalTracer().StartStageSpan(ctx, StageCompile, "")
	start := time.Now()
	err := h.compiler.Compile(ctx, dir)
	h.finishStage(ctx, StageCompile, start, err)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	ctx, span = observability.GetGlobalTracer().StartStageSpan(ctx, StageLoad, "")
	start = time.Now()
	ld, err := h.newLoader(dir)
	h.finishStage(ctx, StageLoad, start, err)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	observability.InfoContext(ctx, "Workspace compiled and loaded", logfields.Workspace(dir))
	return ld, nil
}

// Verify runs generation and compilation without building a loader handle.
// Watch mode uses it: plugins can only be loaded once per process, so
// repeated verification runs stop at the compile stage.
func (h *Harness) Verify(ctx context.Context, req Request) (string, error) {
	dir, err := h.Generate(ctx, req)
	if err != nil {
		return "", err
	}

	ctx, span := observability.GetGlobalTracer().StartStageSpan(ctx, StageCompile, "")
	start := time.Now()
	err = h.compiler.Compile(ctx, dir)
	h.finishStage(ctx, StageCompile, start, err)
	observability.EndSpan(span, err)
	if err != nil {
		return dir, err
	}
	return dir, nil
}

// GenerateAndCompile runs the full pipeline: generate into a fresh
// workspace, compile it in place, and return the loader handle. There is no
// rollback between stages; a compile failure after successful generation
// leaves the workspace as-is for exit cleanup.
func (h *Harness) GenerateAndCompile(ctx context.Context, req Request) (*loader.Loader, error) {
	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	ctx, span := observability.GetGlobalTracer().StartRunSpan(ctx, runID)
	start := time.Now()

	ld, err := h.run(ctx, req)

	h.recorder.ObserveRunDuration(time.Since(start))
	h.recorder.IncRunOutcome(runOutcome(ctx, err))
	observability.EndSpan(span, err)
	return ld, err
}

func (h *Harness) run(ctx context.Context, req Request) (*loader.Loader, error) {
	dir, err := h.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return h.Compile(ctx, dir)
}

// finishStage records one stage's duration and result with both the
// injectable recorder and the session metrics collector watch mode reports
// on shutdown.
func (h *Harness) finishStage(ctx context.Context, stage string, start time.Time, err error) {
	elapsed := time.Since(start)
	h.recorder.ObserveStageDuration(stage, elapsed)
	h.recorder.IncStageResult(stage, stageResult(ctx, err))
	observability.GetMetricsCollector().RecordStage(stage, elapsed, err == nil)
}

func stageResult(ctx context.Context, err error) metrics.ResultLabel {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case ctx.Err() != nil:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

func runOutcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case ctx.Err() != nil:
		return "canceled"
	default:
		return "failed"
	}
}

// defaultCacheDir is where remote schema fetches land. It sits next to the
// workspaces but carries a fixed name, so fetched schemas survive across
// runs while workspaces do not.
func defaultCacheDir(cfg *config.Config) string {
	base := cfg.Workspace.BaseDir
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "structgen-cache")
}
