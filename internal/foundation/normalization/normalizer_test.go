package normalization

import "testing"

type mode string

const (
	modeFast mode = "fast"
	modeSafe mode = "safe"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(map[string]mode{
		"fast": modeFast,
		"safe": modeSafe,
	}, modeSafe)

	tests := []struct {
		input string
		want  mode
	}{
		{"fast", modeFast},
		{"FAST", modeFast},
		{"  safe  ", modeSafe},
		{"bogus", modeSafe},
		{"", modeSafe},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeZeroDefaultDetectsUnknown(t *testing.T) {
	n := NewNormalizer(map[string]mode{"fast": modeFast}, "")
	if got := n.Normalize("nope"); got != "" {
		t.Errorf("unknown input = %v, want zero value", got)
	}
}

func TestNormalizeWithError(t *testing.T) {
	n := NewNormalizer(map[string]mode{
		"fast": modeFast,
		"safe": modeSafe,
	}, modeSafe)

	if _, err := n.NormalizeWithError("fast"); err != nil {
		t.Errorf("valid input returned error: %v", err)
	}
	if _, err := n.NormalizeWithError("bogus"); err == nil {
		t.Error("invalid input did not return error")
	}
}

func TestValidKeysSortedCopy(t *testing.T) {
	n := NewNormalizer(map[string]mode{
		"safe": modeSafe,
		"fast": modeFast,
	}, modeSafe)

	keys := n.ValidKeys()
	if len(keys) != 2 || keys[0] != "fast" || keys[1] != "safe" {
		t.Errorf("ValidKeys = %v, want [fast safe]", keys)
	}
	keys[0] = "mutated"
	if n.ValidKeys()[0] != "fast" {
		t.Error("ValidKeys must return a copy")
	}
}
