package config

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of run-affecting normalized configuration fields.
// It is intentionally narrower than full serialization so that unrelated config
// edits (logging verbosity, history retention) do not trigger watch-mode reruns.
// Slice fields are order-insensitive (sorted prior to hashing). Callers SHOULD
// run NormalizeConfig + applyDefaults before computing a snapshot to ensure
// canonical field values.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }
	w("version", c.Version)
	// Generator options
	w("generator.source_type", string(c.Generator.SourceType))
	w("generator.default_package", c.Generator.DefaultPackage)
	w("generator.use_primitives", boolToString(c.Generator.UsePrimitives))
	w("generator.generate_builders", boolToString(c.Generator.GenerateBuilders))
	// Compiler invocation
	w("compiler.go_binary", c.Compiler.GoBinary)
	w("compiler.build_mode", string(c.Compiler.BuildMode))
	w("compiler.timeout", c.Compiler.Timeout)
	if len(c.Compiler.Env) > 0 {
		env := append([]string{}, c.Compiler.Env...)
		sort.Strings(env)
		w("compiler.env", strings.Join(env, ","))
	}
	// Loader
	w("loader.symbol_name", c.Loader.SymbolName)
	// Retry (affects run outcomes under transient failures)
	w("retry.backoff", string(c.Retry.Backoff))
	w("retry.max_retries", strconv.Itoa(c.Retry.MaxRetries))
	// Declared schemas
	if len(c.Schemas) > 0 {
		refs := make([]string, 0, len(c.Schemas))
		for _, s := range c.Schemas {
			refs = append(refs, s.Location+"|"+s.Package+"|"+s.Name)
		}
		sort.Strings(refs)
		w("schemas", strings.Join(refs, ","))
	}
	// Monitoring logging (affects runtime logging but not generated output; included for completeness)
	if c.Monitoring != nil {
		w("monitoring.logging.level", string(c.Monitoring.Logging.Level))
		w("monitoring.logging.format", string(c.Monitoring.Logging.Format))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
