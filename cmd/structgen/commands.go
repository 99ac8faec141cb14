package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/structgen/internal/compiler"
	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/docgen"
	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/generator"
	"git.home.luguber.info/inful/structgen/internal/harness"
	"git.home.luguber.info/inful/structgen/internal/history"
	"git.home.luguber.info/inful/structgen/internal/logfields"
	"git.home.luguber.info/inful/structgen/internal/metrics"
	"git.home.luguber.info/inful/structgen/internal/notify"
	"git.home.luguber.info/inful/structgen/internal/version"
	"git.home.luguber.info/inful/structgen/internal/watch"

	prom "github.com/prometheus/client_golang/prometheus"
)

func runGenerate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if CLI.Generate.Keep {
		cfg.Workspace.Keep = true
	}
	applyGeneratorFlags(cfg, CLI.Generate.Builders, CLI.Generate.Primitives)

	// Without a schema argument the configured schemas block drives the run.
	if CLI.Generate.Schema == "" {
		if CLI.Generate.Output != "" {
			return errors.ValidationError("-o requires a schema argument; configured schemas each get their own workspace")
		}
		reqs, err := configRequests(cfg)
		if err != nil {
			return err
		}
		h := harness.New(cfg)
		for _, req := range reqs {
			dir, err := h.Generate(ctx, req)
			if err != nil {
				return err
			}
			fmt.Println(dir)
		}
		return nil
	}

	req := harness.Request{
		Schema:           CLI.Generate.Schema,
		TargetPackage:    CLI.Generate.Package,
		GenerateBuilders: cfg.Generator.GenerateBuilders,
		UsePrimitives:    cfg.Generator.UsePrimitives,
	}

	// An explicit output directory bypasses workspace provisioning; the
	// caller owns the directory and nothing is removed on exit.
	if CLI.Generate.Output != "" {
		return generateInto(ctx, cfg, req, CLI.Generate.Output)
	}

	h := harness.New(cfg)
	dir, err := h.Generate(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(dir)
	return nil
}

// configRequests expands the configuration's schemas block into one request
// per entry. Per-schema package and root name overrides carry through.
func configRequests(cfg *config.Config) ([]harness.Request, error) {
	if len(cfg.Schemas) == 0 {
		return nil, errors.ConfigRequired("schemas")
	}
	reqs := make([]harness.Request, 0, len(cfg.Schemas))
	for _, ref := range cfg.Schemas {
		reqs = append(reqs, harness.Request{
			Schema:           ref.Location,
			TargetPackage:    ref.Package,
			RootName:         ref.Name,
			GenerateBuilders: cfg.Generator.GenerateBuilders,
			UsePrimitives:    cfg.Generator.UsePrimitives,
		})
	}
	return reqs, nil
}

func generateInto(ctx context.Context, cfg *config.Config, req harness.Request, output string) error {
	resolved, err := harness.DefaultResolver(cfg).Resolve(ctx, req.Schema)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return errors.WorkspaceError(output, err)
	}

	pkg := req.TargetPackage
	if pkg == "" {
		pkg = cfg.Generator.DefaultPackage
	}
	gcfg := generator.Config{
		SourcePath:       resolved.LocalPath,
		OutputDir:        output,
		TargetPackage:    pkg,
		RootName:         req.RootName,
		GenerateBuilders: req.GenerateBuilders,
		UsePrimitives:    req.UsePrimitives,
		Project:          generator.StubProject{},
	}
	if err := generator.New().Execute(ctx, gcfg); err != nil {
		return errors.GenerationFailed(req.Schema, err)
	}
	fmt.Println(output)
	return nil
}

func runCheck(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyGeneratorFlags(cfg, CLI.Check.Builders, CLI.Check.Primitives)

	h := harness.New(cfg)
	ld, err := h.GenerateAndCompile(ctx, harness.Request{
		Schema:           CLI.Check.Schema,
		TargetPackage:    CLI.Check.Package,
		GenerateBuilders: cfg.Generator.GenerateBuilders,
		UsePrimitives:    cfg.Generator.UsePrimitives,
	})
	if err != nil {
		return err
	}

	fmt.Printf("ok: %d types\n", len(ld.Types()))
	for _, name := range ld.Types() {
		fmt.Println("  " + name)
	}
	return nil
}

func runDocs(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	resolved, err := harness.DefaultResolver(cfg).Resolve(ctx, CLI.Docs.Schema)
	if err != nil {
		return err
	}
	schema, err := generator.ParseFile(resolved.LocalPath)
	if err != nil {
		return errors.Wrap(err, errors.CategorySchema, errors.SeverityFatal, "parsing schema")
	}

	base := filepath.Base(resolved.LocalPath)
	fallback := generator.TypeName(strings.TrimSuffix(base, filepath.Ext(base)))
	page, err := docgen.Render(schema, fallback)
	if err != nil {
		return err
	}
	if err := os.WriteFile(CLI.Docs.Output, page, 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal, "writing documentation")
	}
	slog.Info("Wrote schema reference", logfields.Path(CLI.Docs.Output), logfields.Schema(CLI.Docs.Schema))
	return nil
}

func runWatch(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Watch == nil {
		return errors.ConfigRequired("watch")
	}

	h := harness.New(cfg)
	var opts []watch.Option

	if _, statErr := os.Stat(CLI.Config); statErr == nil {
		opts = append(opts, watch.WithConfigFile(CLI.Config))
	}

	if cfg.History != nil && cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.Path, cfg.History.Keep)
		if err != nil {
			return errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "opening history store")
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.Warn("Closing history store", logfields.Error(err))
			}
		}()
		opts = append(opts, watch.WithHistory(store))
	}

	if cfg.Notify != nil && cfg.Notify.Enabled {
		pub, err := notify.NewPublisher(cfg.Notify)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts = append(opts, watch.WithPublisher(pub))
	}

	if cfg.Watch.MetricsAddr != "" {
		reg := prom.NewRegistry()
		opts = append(opts,
			watch.WithRecorder(metrics.NewPrometheusRecorder(reg)),
			watch.WithMetricsHandler(metrics.HTTPHandler(reg)),
		)
	}

	return watch.New(cfg, h, opts...).Run(ctx)
}

func runSweep(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw := CLI.Sweep.MaxAge
	if cfg.Workspace.StaleAfter != "" {
		raw = cfg.Workspace.StaleAfter
	}
	maxAge, err := time.ParseDuration(raw)
	if err != nil {
		return errors.ValidationError("invalid max-age duration: " + raw)
	}

	baseDir := cfg.Workspace.BaseDir
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	removed, err := watch.Sweep(ctx, baseDir, maxAge)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d stale workspace(s)\n", removed)
	return nil
}

func runHistory(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History == nil || !cfg.History.Enabled {
		return errors.ConfigRequired("history")
	}

	store, err := history.NewStore(cfg.History.Path, cfg.History.Keep)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "opening history store")
	}
	defer store.Close()

	var runs []history.Run
	if CLI.History.Schema != "" {
		runs, err = store.BySchema(ctx, CLI.History.Schema, CLI.History.Limit)
	} else {
		runs, err = store.Recent(ctx, CLI.History.Limit)
	}
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "querying run history")
	}

	if len(runs) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %-8s  %6dms  %s",
			r.StartedAt.Format(time.RFC3339), r.Outcome, r.DurationMS, r.Schema)
		if r.Error != "" {
			line += "  (" + r.Error + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func runInit() error {
	if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "initializing configuration")
	}
	fmt.Println("wrote " + CLI.Config)
	return nil
}

func runVersion(ctx context.Context) error {
	fmt.Println(version.String())

	cfg, err := loadConfig()
	if err != nil {
		cfg = config.Default()
	}
	if tv := compiler.New(cfg.Compiler).DetectToolchainVersion(ctx); tv != "" {
		fmt.Println("toolchain: go" + tv)
	}
	return nil
}

// applyGeneratorFlags folds command-line generation toggles into the loaded
// configuration. Flags only enable; the config file is the baseline.
func applyGeneratorFlags(cfg *config.Config, builders, primitives bool) {
	if builders {
		cfg.Generator.GenerateBuilders = true
	}
	if primitives {
		cfg.Generator.UsePrimitives = true
	}
}
