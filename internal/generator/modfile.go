package generator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"

	"git.home.luguber.info/inful/structgen/internal/logfields"
)

// generatedModule is the module path of every emitted tree. The name never
// leaves the workspace, so a stable word beats deriving one.
const generatedModule = "generated"

// goDirective is the language version stamped into emitted go.mod files.
const goDirective = "1.24"

// writeModFile synthesizes the go.mod for an emitted tree. Classpath entries
// that are module trees become require+replace pairs pointing at their
// directories; entries without a module manifest are skipped with a warning.
func writeModFile(dir string, classpath []string) error {
	f := new(modfile.File)
	if err := f.AddModuleStmt(generatedModule); err != nil {
		return fmt.Errorf("building go.mod: %w", err)
	}
	if err := f.AddGoStmt(goDirective); err != nil {
		return fmt.Errorf("building go.mod: %w", err)
	}

	for _, entry := range classpath {
		modPath, err := moduleNameOf(entry)
		if err != nil {
			slog.Warn("Skipping classpath entry without module manifest", logfields.Path(entry), logfields.Error(err))
			continue
		}
		if err := f.AddRequire(modPath, "v0.0.0"); err != nil {
			return fmt.Errorf("building go.mod: %w", err)
		}
		if err := f.AddReplace(modPath, "", localReplacePath(entry), ""); err != nil {
			return fmt.Errorf("building go.mod: %w", err)
		}
	}

	data, err := f.Format()
	if err != nil {
		return fmt.Errorf("formatting go.mod: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), data, 0o644); err != nil {
		return fmt.Errorf("writing go.mod: %w", err)
	}
	return nil
}

// moduleNameOf reads the module path from a classpath directory's go.mod.
func moduleNameOf(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", err
	}
	mf, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return "", err
	}
	if mf.Module == nil || mf.Module.Mod.Path == "" {
		return "", fmt.Errorf("module directive missing in %s", dir)
	}
	return mf.Module.Mod.Path, nil
}

// localReplacePath makes a classpath directory usable as a replace target:
// relative paths must start with ./ or ../ to count as filesystem paths.
func localReplacePath(entry string) string {
	if filepath.IsAbs(entry) || strings.HasPrefix(entry, "./") || strings.HasPrefix(entry, "../") {
		return entry
	}
	return "./" + entry
}
