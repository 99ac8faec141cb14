// Package integration exercises the full generate, compile and load pipeline
// against real schemas on disk. Tests that need the Go toolchain skip when it
// is not installed; tests that need plugin support carry build constraints.
package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/structgen/internal/config"
	"git.home.luguber.info/inful/structgen/internal/workspace"
)

// testConfig returns a default configuration whose workspaces land in a
// per-test temporary directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Workspace.BaseDir = t.TempDir()
	return cfg
}

// addressSchema returns the path to the checked-in address schema.
func addressSchema(t *testing.T) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("testdata", "address.json"))
	require.NoError(t, err)
	return path
}

// workspaceDirs lists the ephemeral workspace directories under baseDir.
func workspaceDirs(t *testing.T, baseDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(baseDir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), workspace.Prefix) {
			dirs = append(dirs, filepath.Join(baseDir, entry.Name()))
		}
	}
	return dirs
}

// requireGoToolchain skips the test when no go binary is on PATH.
func requireGoToolchain(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
}
