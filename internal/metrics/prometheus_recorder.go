package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	stageDuration    *prom.HistogramVec
	runDuration      prom.Histogram
	stageResults     *prom.CounterVec
	runOutcome       *prom.CounterVec
	fetchDuration    *prom.HistogramVec
	fetchResults     *prom.CounterVec
	watchQueueDepth  prom.Gauge
	retries          *prom.CounterVec
	retriesExhausted *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "structgen",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual run stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "structgen",
			Name:      "run_duration_seconds",
			Help:      "Total generation run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "structgen",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "structgen",
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"})
		pr.fetchDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "structgen",
			Name:      "schema_fetch_duration_seconds",
			Help:      "Duration of individual schema source fetch operations",
			Buckets:   prom.DefBuckets,
		}, []string{"source", "result"})
		pr.fetchResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "structgen",
			Name:      "schema_fetch_results_total",
			Help:      "Schema fetch results by success/failure",
		}, []string{"result"})
		pr.watchQueueDepth = prom.NewGauge(prom.GaugeOpts{
			Namespace: "structgen",
			Name:      "watch_queue_depth",
			Help:      "Pending schema changes awaiting regeneration in watch mode",
		})
		pr.retries = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "structgen",
			Name:      "run_retries_total",
			Help:      "Total run stage retries (transient failures)",
		}, []string{"stage"})
		pr.retriesExhausted = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "structgen",
			Name:      "run_retry_exhausted_total",
			Help:      "Count of stages where retries were exhausted",
		}, []string{"stage"})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.fetchDuration, pr.fetchResults, pr.watchQueueDepth, pr.retries, pr.retriesExhausted)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}
func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}
func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveSchemaFetchDuration(source string, d time.Duration, success bool) {
	if p == nil || p.fetchDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchDuration.WithLabelValues(source, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSchemaFetchResult(success bool) {
	if p == nil || p.fetchResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.fetchResults.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetWatchQueueDepth(n int) {
	if p == nil || p.watchQueueDepth == nil {
		return
	}
	p.watchQueueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) IncRunRetry(stage string) {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) IncRunRetryExhausted(stage string) {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(stage).Inc()
}
