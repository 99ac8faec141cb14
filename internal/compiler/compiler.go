// Package compiler invokes the Go toolchain over a directory of generated
// sources. It is deliberately ignorant of where the sources came from: it
// compiles everything found under the directory and writes the output next
// to them.
package compiler

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/mod/modfile"

	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/logfields"
)

// DefaultArtifactName is the plugin output file written into the source
// directory. The loader opens the same name.
const DefaultArtifactName = "types.so"

// Compiler runs the external Go toolchain against a source directory.
type Compiler struct {
	goBinary string
	mode     config.BuildMode
	artifact string
	timeout  time.Duration
	env      []string
}

// New creates a compiler from the compiler config section.
func New(cfg config.CompilerConfig) *Compiler {
	c := &Compiler{
		goBinary: cfg.GoBinary,
		mode:     cfg.BuildMode,
		artifact: DefaultArtifactName,
		env:      cfg.Env,
	}
	if c.goBinary == "" {
		c.goBinary = "go"
	}
	if c.mode == "" {
		c.mode = config.BuildModePlugin
	}
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			c.timeout = d
		}
	}
	return c
}

// ArtifactPath returns where Compile places the loadable artifact for dir.
// Only meaningful in plugin mode.
func (c *Compiler) ArtifactPath(dir string) string {
	return filepath.Join(dir, c.artifact)
}

// Compile builds every source file under dir, in place. A module manifest is
// synthesized when the directory has none, so plain source trees compile
// too. Any diagnostic the toolchain reports as an error aborts the run; the
// full compiler output travels in the returned error's context.
func (c *Compiler) Compile(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.CompileFailed(dir, err).WithContext("reason", "source directory not readable")
	}

	if err := c.ensureModFile(dir); err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := c.buildArgs(dir)
	// #nosec G204 -- goBinary comes from config, args are fixed flags
	cmd := exec.CommandContext(ctx, c.goBinary, args...)
	cmd.Dir = dir
	cmd.Env = c.buildEnv()

	start := time.Now()
	slog.Debug("Invoking toolchain", logfields.Path(dir), slog.String("command", c.goBinary+" "+strings.Join(args, " ")))

	output, err := cmd.CombinedOutput()
	duration := time.Since(start)
	if err != nil {
		return errors.CompileFailed(dir, err).
			WithContext("command", c.goBinary+" "+strings.Join(args, " ")).
			WithContext("output", strings.TrimSpace(string(output)))
	}

	slog.Info("Compilation complete",
		logfields.Path(dir),
		slog.String("mode", string(c.mode)),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return nil
}

// buildArgs assembles the toolchain arguments for the configured mode.
// Plugin mode produces a loadable artifact; archive mode only verifies that
// the whole tree compiles.
func (c *Compiler) buildArgs(dir string) []string {
	if c.mode == config.BuildModeArchive {
		return []string{"build", "./..."}
	}
	return []string{"build", "-buildmode=plugin", "-ldflags=-pluginpath=" + pluginPath(dir), "-o", c.artifact, "."}
}

// pluginPath derives a per-directory pluginpath for the artifact. Without
// the override every emitted tree shares the pluginpath derived from its
// module path, and the runtime refuses to open a second plugin with the same
// pluginpath in one process. Workspace directories are uuid-named, so keying
// on the source directory keeps artifacts from separate runs loadable side
// by side.
func pluginPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return path.Join("structgen", strings.TrimLeft(filepath.ToSlash(abs), "/"))
}

// buildEnv inherits the process environment so the toolchain finds its
// caches, forces GOWORK=off so an enclosing workspace file cannot leak into
// the disposable module, and appends any configured extras last so they win.
func (c *Compiler) buildEnv() []string {
	env := append(os.Environ(), "GOWORK=off")
	return append(env, c.env...)
}

// ensureModFile writes a minimal go.mod when the directory has none. The
// generator normally emits one; this keeps hand-assembled source trees
// compilable.
func (c *Compiler) ensureModFile(dir string) error {
	modPath := filepath.Join(dir, "go.mod")
	if _, err := os.Stat(modPath); err == nil {
		return nil
	}

	f := new(modfile.File)
	if err := f.AddModuleStmt(moduleNameFor(dir)); err != nil {
		return errors.CompileFailed(dir, err).WithContext("reason", "synthesizing go.mod")
	}
	if err := f.AddGoStmt("1.24"); err != nil {
		return errors.CompileFailed(dir, err).WithContext("reason", "synthesizing go.mod")
	}
	data, err := f.Format()
	if err != nil {
		return errors.CompileFailed(dir, err).WithContext("reason", "synthesizing go.mod")
	}
	if err := os.WriteFile(modPath, data, 0o644); err != nil {
		return errors.CompileFailed(dir, err).WithContext("reason", "writing synthesized go.mod")
	}
	slog.Debug("Synthesized module manifest", logfields.Path(modPath))
	return nil
}

// moduleNameFor derives a module path from the directory base name, falling
// back to a constant when the name has no identifier-safe runes.
func moduleNameFor(dir string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, filepath.Base(dir))
	base = strings.Trim(base, "-.")
	if base == "" {
		return "generated"
	}
	return base
}
