//go:build (linux || darwin) && cgo

package loader

import (
	"fmt"
	"plugin"

	"git.home.luguber.info/inful/structgen/internal/errors"
)

// openFactories opens a compiled plugin and extracts its factory table. The
// symbol must be a map[string]func() any keyed by fully qualified type name;
// anything else means the artifact was not produced by a compatible
// generator.
func openFactories(artifact, symbol string) (map[string]Factory, error) {
	p, err := plugin.Open(artifact)
	if err != nil {
		return nil, errors.LoaderFailed(artifact, err)
	}

	sym, err := p.Lookup(symbol)
	if err != nil {
		return nil, errors.LoaderFailed(artifact, err).WithContext("symbol", symbol)
	}

	table, ok := sym.(*map[string]func() any)
	if !ok {
		return nil, errors.LoaderFailed(artifact, fmt.Errorf("symbol %s has type %T, want *map[string]func() any", symbol, sym))
	}

	factories := make(map[string]Factory, len(*table))
	for name, fn := range *table {
		factories[name] = Factory(fn)
	}
	return factories, nil
}
