package notify

import (
	"encoding/json"
	"testing"
	"time"

	"git.home.luguber.info/inful/structgen/internal/config"
)

func TestNewPublisher_DisabledConfig(t *testing.T) {
	if _, err := NewPublisher(nil); err == nil {
		t.Error("NewPublisher(nil) succeeded")
	}

	cfg := &config.NotifyConfig{Enabled: false, NATSURL: "nats://localhost:4222"}
	if _, err := NewPublisher(cfg); err == nil {
		t.Error("NewPublisher() with disabled config succeeded")
	}
}

func TestRunEvent_WireFormat(t *testing.T) {
	event := RunEvent{
		RunID:      "run-1",
		Schema:     "address.json",
		Package:    "com.example",
		Outcome:    "success",
		DurationMS: 900,
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"run_id", "schema", "package", "outcome", "duration_ms", "timestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("wire format missing %q", key)
		}
	}

	// Empty optional fields stay off the wire.
	if _, ok := decoded["error"]; ok {
		t.Error("empty error field serialized")
	}
	if _, ok := decoded["workspace"]; ok {
		t.Error("empty workspace field serialized")
	}
}
