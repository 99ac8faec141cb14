//go:build !((linux || darwin) && cgo)

package loader

import (
	"fmt"

	"git.home.luguber.info/inful/structgen/internal/errors"
)

// ErrUnsupported reports that dynamic artifact loading is not available on
// this platform. Generation and compilation still work; only loading needs
// cgo plugin support.
var ErrUnsupported = fmt.Errorf("plugin loading requires linux or darwin with cgo enabled")

func openFactories(artifact, _ string) (map[string]Factory, error) {
	return nil, errors.LoaderFailed(artifact, ErrUnsupported)
}
