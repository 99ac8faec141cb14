// Package generator turns JSON Schemas into compilable Go source trees. The
// emitted tree is a self-contained module buildable in plugin mode, exposing
// a Factories symbol keyed by fully qualified type names.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/structgen/internal/logfields"
)

// Project supplies the execution context a generation run needs from its
// surrounding build, reduced to the one capability the generator consumes.
type Project interface {
	// CompileClasspath lists directories of additional module trees made
	// available to the generated code as local requirements.
	CompileClasspath() ([]string, error)
}

// StubProject is a Project with nothing on the classpath. Harness runs use it
// so generation happens in full isolation.
type StubProject struct{}

func (StubProject) CompileClasspath() ([]string, error) { return []string{}, nil }

// Config is an immutable description of one generation run.
type Config struct {
	SourcePath    string
	OutputDir     string
	TargetPackage string
	// RootName overrides the root type name; empty falls back to the schema
	// title, then the source file name.
	RootName         string
	GenerateBuilders bool
	UsePrimitives    bool
	Project          Project
}

// Executor runs a generator against a Config. Callers treat it opaquely; any
// error means the run produced no usable result.
type Executor interface {
	Execute(ctx context.Context, cfg Config) error
}

// Generator is the reference Executor implementation.
type Generator struct{}

func New() *Generator { return &Generator{} }

// Execute parses the schema at cfg.SourcePath and emits a module into
// cfg.OutputDir: go.mod, a plugin entry point, and one source file per
// generated type under the package-derived directory.
func (g *Generator) Execute(ctx context.Context, cfg Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cfg.SourcePath == "" {
		return fmt.Errorf("source path is required")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if cfg.TargetPackage == "" {
		return fmt.Errorf("target package is required")
	}
	project := cfg.Project
	if project == nil {
		project = StubProject{}
	}

	classpath, err := project.CompileClasspath()
	if err != nil {
		return fmt.Errorf("resolving compile classpath: %w", err)
	}

	schema, err := ParseFile(cfg.SourcePath)
	if err != nil {
		return err
	}
	if !schema.IsObject() {
		return fmt.Errorf("schema root must describe an object type")
	}

	rootName := cfg.RootName
	if rootName == "" {
		rootName = schema.Title
	}
	if rootName == "" {
		base := filepath.Base(cfg.SourcePath)
		rootName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	types, err := buildTypes(schema, TypeName(rootName), cfg)
	if err != nil {
		return err
	}

	pkgDir := filepath.Join(cfg.OutputDir, PackageDir(cfg.TargetPackage))
	if err := os.MkdirAll(pkgDir, 0o750); err != nil {
		return fmt.Errorf("creating package directory: %w", err)
	}

	pkgName := PackageName(cfg.TargetPackage)
	for _, t := range types {
		t.PackageName = pkgName
		src, renderErr := renderTypeFile(t)
		if renderErr != nil {
			return renderErr
		}
		target := filepath.Join(pkgDir, fileName(t.Name))
		if writeErr := os.WriteFile(target, src, 0o644); writeErr != nil {
			return fmt.Errorf("writing %s: %w", target, writeErr)
		}
	}

	entry, err := renderEntryPoint(cfg.TargetPackage, types)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, "main.go"), entry, 0o644); err != nil {
		return fmt.Errorf("writing plugin entry point: %w", err)
	}

	if err := writeModFile(cfg.OutputDir, classpath); err != nil {
		return err
	}

	slog.Info("Generation complete",
		logfields.Schema(cfg.SourcePath),
		logfields.Package(cfg.TargetPackage),
		slog.Int("types", len(types)),
		logfields.Path(cfg.OutputDir))
	return nil
}
