package loader

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is an ambient table of type factories. It plays the role of the
// caller's surrounding resolution context: loaders fall back to it for names
// their artifact does not carry.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a fully qualified type name. Registering the
// same name twice is an error; callers own their namespace.
func (r *Registry) Register(name string, fn Factory) error {
	if fn == nil {
		return fmt.Errorf("cannot register nil factory for %s", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("type %s already registered", name)
	}
	r.factories[name] = fn
	return nil
}

// Resolve implements Resolver.
func (r *Registry) Resolve(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("type %s not found", name)
	}
	return fn, nil
}

// Names lists registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ambient is the process-wide registry new loaders chain to by default.
var ambient = NewRegistry()

// Ambient returns the process-wide registry.
func Ambient() *Registry { return ambient }
