// Package cleanup provides a process-wide registry of deferred cleanup
// actions, drained exactly once at orderly shutdown.
//
// Workspaces and other disposable resources register their teardown here
// instead of relying on defer chains that never run when main exits through
// os.Exit or a signal handler. Registration is safe from concurrent
// goroutines; actions are independent and must not assume any ordering
// relative to each other.
package cleanup

import (
	"errors"
	"log/slog"
	"sync"
)

// Action is a single deferred cleanup step. It must be self-contained and
// idempotent: running against already-released resources is success.
type Action func() error

type entry struct {
	name string
	fn   Action
}

// Registry collects cleanup actions for a single process.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	drained bool
}

// NewRegistry creates an empty cleanup registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register schedules fn to run when the registry is drained. The name is used
// for logging only. If the registry has already been drained, fn runs
// immediately so late registrations are never leaked.
func (r *Registry) Register(name string, fn Action) {
	if fn == nil {
		return
	}

	r.mu.Lock()
	if r.drained {
		r.mu.Unlock()
		if err := fn(); err != nil {
			slog.Warn("Late cleanup action failed", "name", name, "error", err)
		}
		return
	}
	r.entries = append(r.entries, entry{name: name, fn: fn})
	r.mu.Unlock()
}

// Len reports the number of pending actions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drained {
		return 0
	}
	return len(r.entries)
}

// Run executes every registered action exactly once and returns the joined
// errors. Subsequent calls are no-ops; action failures do not stop the
// remaining actions.
func (r *Registry) Run() error {
	r.mu.Lock()
	if r.drained {
		r.mu.Unlock()
		return nil
	}
	r.drained = true
	pending := r.entries
	r.entries = nil
	r.mu.Unlock()

	var errs []error
	for _, e := range pending {
		if err := e.fn(); err != nil {
			slog.Error("Cleanup action failed", "name", e.name, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// defaultRegistry backs the package-level functions. Most callers share it so
// a single drain in main covers every workspace created during the process.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register schedules an action on the process-wide registry.
func Register(name string, fn Action) { defaultRegistry.Register(name, fn) }

// Run drains the process-wide registry.
func Run() error { return defaultRegistry.Run() }
