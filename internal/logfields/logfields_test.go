package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"Schema", KeySchema, "address.json", Schema("address.json")},
		{"Workspace", KeyWorkspace, "/tmp/structgen-x", Workspace("/tmp/structgen-x")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Stage", KeyStage, "generate", Stage("generate")},
		{"Package", KeyPackage, "com.example", Package("com.example")},
		{"TypeName", KeyTypeName, "Address", TypeName("Address")},
		{"Artifact", KeyArtifact, "types.so", Artifact("types.so")},
		{"RunID", KeyRunID, "rid", RunID("rid")},
		{"Outcome", KeyOutcome, "success", Outcome("success")},
		{"Subject", KeySubject, "structgen.runs", Subject("structgen.runs")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal { // Value is slog.Value
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
