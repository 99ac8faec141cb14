// Package normalization maps free-form user input onto typed enum values.
// The config layer uses it for every string-backed enum it reads from YAML.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer converts strings to values of a string-backed enum type. Lookup
// is case-insensitive and whitespace-tolerant.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string // sorted, for stable error messages
}

// NewNormalizer builds a normalizer from valid key-value pairs. Unrecognized
// input normalizes to defaultValue; pass the zero value to make unknown
// input detectable by the caller.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		c := canonical(k)
		normalized[c] = v
		keys = append(keys, c)
	}
	sort.Strings(keys)

	return &Normalizer[T]{
		values:       normalized,
		defaultValue: defaultValue,
		keys:         keys,
	}
}

// Normalize converts raw input, falling back to the default for unknown values.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[canonical(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// NormalizeWithError converts raw input, reporting unknown values as errors.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	if v, ok := n.values[canonical(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid value %q, valid options: %v", raw, n.keys)
}

// ValidKeys returns the accepted canonical keys.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
