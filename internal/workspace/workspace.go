package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/structgen/internal/cleanup"
	"git.home.luguber.info/inful/structgen/internal/logfields"
)

// Prefix is the directory name prefix for ephemeral workspaces. The janitor
// only ever touches directories carrying it.
const Prefix = "structgen-"

// Manager handles workspace operations (both ephemeral and persistent)
type Manager struct {
	baseDir    string
	tempDir    string
	persistent bool // If true, use baseDir directly without generated names
	keep       bool // If true, skip exit-time removal (debugging aid)
	reg        *cleanup.Registry
}

// NewManager creates a new workspace manager with ephemeral uuid-named directories
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{
		baseDir:    baseDir,
		persistent: false,
		reg:        cleanup.Default(),
	}
}

// NewPersistentManager creates a workspace manager that uses a persistent directory.
// The workspace directory is fixed (baseDir/subdirName) and not cleaned up on Cleanup().
func NewPersistentManager(baseDir, subdirName string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if subdirName == "" {
		subdirName = "working"
	}
	return &Manager{
		baseDir:    baseDir,
		tempDir:    filepath.Join(baseDir, subdirName),
		persistent: true,
		reg:        cleanup.Default(),
	}
}

// WithRegistry replaces the cleanup registry used for exit-time removal.
func (m *Manager) WithRegistry(reg *cleanup.Registry) *Manager {
	m.reg = reg
	return m
}

// WithKeep disables exit-time removal of ephemeral workspaces so a failed
// run's output can be inspected.
func (m *Manager) WithKeep(keep bool) *Manager {
	m.keep = keep
	return m
}

// Create creates a workspace directory
// For ephemeral mode: creates a uuid-named directory and registers its removal
// with the cleanup registry before attempting creation, so a partially created
// directory is still removed at exit
// For persistent mode: ensures the fixed directory exists
func (m *Manager) Create() error {
	if m.persistent {
		// Persistent mode: use fixed directory
		if err := os.MkdirAll(m.tempDir, 0o750); err != nil {
			return fmt.Errorf("failed to create persistent workspace directory: %w", err)
		}
		slog.Info("Using persistent workspace", logfields.Workspace(m.tempDir))
		return nil
	}

	// Ephemeral mode: unique name per call, removal registered first
	tempDir := filepath.Join(m.baseDir, Prefix+uuid.NewString())
	if m.keep {
		slog.Debug("Keeping workspace past exit", logfields.Workspace(tempDir))
	} else {
		// A workspace that is already gone, or that never came into
		// existence because the base path was unusable, counts as removed.
		m.reg.Register(tempDir, func() error {
			err := os.RemoveAll(tempDir)
			if err == nil || errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
				return nil
			}
			return err
		})
	}

	if err := os.MkdirAll(tempDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.tempDir = tempDir
	slog.Info("Created workspace", logfields.Workspace(tempDir))
	return nil
}

// GetPath returns the path to the workspace directory
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Cleanup removes the workspace directory
// For persistent mode: does nothing (keeps directory for incremental runs)
// For ephemeral mode: removes the uuid-named directory; the registered exit
// action then finds nothing left to do
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}

	if m.persistent {
		// Persistent mode: don't delete the directory
		slog.Debug("Skipping cleanup for persistent workspace", logfields.Workspace(m.tempDir))
		return nil
	}

	// Ephemeral mode: remove directory
	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}

	slog.Info("Cleaned up workspace", logfields.Workspace(m.tempDir))
	m.tempDir = ""
	return nil
}

// CreateSubdir creates a subdirectory within the workspace
func (m *Manager) CreateSubdir(name string) (string, error) {
	if m.tempDir == "" {
		return "", fmt.Errorf("workspace not created")
	}

	subdir := filepath.Join(m.tempDir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	return subdir, nil
}

// StaleWorkspaces returns ephemeral workspace directories under baseDir whose
// modification time is older than maxAge. Leftovers from crashed runs show up
// here; the janitor sweeps them.
func StaleWorkspaces(baseDir string, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace base directory: %w", err)
	}

	deadline := time.Now().Add(-maxAge)
	var stale []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), Prefix) {
			continue
		}
		// Only uuid-suffixed names are workspaces; other structgen-prefixed
		// directories (the schema cache, persistent workspaces) are not ours
		// to sweep.
		if _, err := uuid.Parse(strings.TrimPrefix(entry.Name(), Prefix)); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(deadline) {
			stale = append(stale, filepath.Join(baseDir, entry.Name()))
		}
	}
	return stale, nil
}
