package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("generate", 150*time.Millisecond)
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncStageResult("generate", ResultSuccess)
	pr.IncRunOutcome("success")
	pr.ObserveSchemaFetchDuration("address.json", 30*time.Millisecond, true)
	pr.IncSchemaFetchResult(true)
	pr.SetWatchQueueDepth(2)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorder_NilReceiverSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStageDuration("generate", time.Millisecond)
	pr.ObserveRunDuration(time.Millisecond)
	pr.IncStageResult("generate", ResultFatal)
	pr.IncRunOutcome("failed")
	pr.ObserveSchemaFetchDuration("x", time.Millisecond, false)
	pr.IncSchemaFetchResult(false)
	pr.SetWatchQueueDepth(0)
	pr.IncRunRetry("compile")
	pr.IncRunRetryExhausted("compile")
}
