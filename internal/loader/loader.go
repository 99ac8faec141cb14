// Package loader exposes compiled workspace artifacts as resolvable types.
// A Loader resolves fully qualified type names (e.g. "com.example.Address")
// against the factories exported by a freshly compiled plugin, falling back
// to the ambient registry so names the plugin does not carry still resolve
// through the normal environment.
package loader

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/structgen/internal/errors"
	"git.home.luguber.info/inful/structgen/internal/logfields"
)

// DefaultSymbolName is the exported symbol looked up in loaded artifacts.
const DefaultSymbolName = "Factories"

// DefaultArtifactName matches the compiler's plugin output name.
const DefaultArtifactName = "types.so"

// Factory constructs a fresh instance of a generated type.
type Factory func() any

// Resolver resolves fully qualified type names to factories.
type Resolver interface {
	Resolve(name string) (Factory, error)
}

// Loader resolves types from one compiled artifact root, with a parent
// Resolver as fallback. It references the workspace directory but does not
// own it; validity ends when the workspace is removed.
type Loader struct {
	dir       string
	factories map[string]Factory
	parent    Resolver
}

// Option customizes loader construction.
type Option func(*options)

type options struct {
	artifact string
	symbol   string
	parent   Resolver
}

// WithArtifact overrides the artifact file name opened under the directory.
func WithArtifact(name string) Option {
	return func(o *options) { o.artifact = name }
}

// WithSymbol overrides the exported symbol looked up in the artifact.
func WithSymbol(name string) Option {
	return func(o *options) { o.symbol = name }
}

// WithParent overrides the fallback resolver. The default is the
// process-wide ambient registry.
func WithParent(parent Resolver) Option {
	return func(o *options) { o.parent = parent }
}

// New opens the compiled artifact under dir and wraps it in a Loader. The
// directory path is converted to an absolute artifact root first; both that
// conversion and the artifact open are load-category failures.
func New(dir string, opts ...Option) (*Loader, error) {
	o := options{
		artifact: DefaultArtifactName,
		symbol:   DefaultSymbolName,
		parent:   Ambient(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.LoaderFailed(dir, err).WithContext("reason", "resolving artifact root")
	}

	artifact := filepath.Join(root, o.artifact)
	factories, err := openFactories(artifact, o.symbol)
	if err != nil {
		return nil, err
	}

	slog.Debug("Artifact loaded", logfields.Artifact(artifact), slog.Int("types", len(factories)))
	return &Loader{dir: root, factories: factories, parent: o.parent}, nil
}

// NewFromFactories wraps an in-memory factory table in a Loader. Callers
// that generate factories in-process (or tests) get the same resolution
// chain without a compiled artifact.
func NewFromFactories(factories map[string]Factory, opts ...Option) *Loader {
	o := options{parent: Ambient()}
	for _, opt := range opts {
		opt(&o)
	}
	copied := make(map[string]Factory, len(factories))
	for name, fn := range factories {
		copied[name] = fn
	}
	return &Loader{factories: copied, parent: o.parent}
}

// Dir returns the artifact root this loader references.
func (l *Loader) Dir() string { return l.dir }

// Resolve finds the factory for a fully qualified type name, consulting the
// loaded artifact first and the parent resolver second.
func (l *Loader) Resolve(name string) (Factory, error) {
	if fn, ok := l.factories[name]; ok {
		return fn, nil
	}
	if l.parent != nil {
		return l.parent.Resolve(name)
	}
	return nil, fmt.Errorf("type %s not found", name)
}

// New resolves and instantiates a type by fully qualified name.
func (l *Loader) New(name string) (any, error) {
	fn, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}

// Types lists the fully qualified names the loaded artifact itself carries,
// sorted. Parent-resolvable names are not included.
func (l *Loader) Types() []string {
	names := make([]string, 0, len(l.factories))
	for name := range l.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
