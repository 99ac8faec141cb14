package observability

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// MetricsCollector tracks application metrics.
type MetricsCollector struct {
	mu sync.RWMutex

	// Run metrics
	runCount          int64           // Total runs started
	runDurations      []time.Duration // Individual run durations (for percentiles)
	runErrors         int64           // Total run failures
	runsByStatus      map[string]int64
	currentConcurrent int64

	// Cache metrics (schema source fetch cache)
	cacheHits   int64
	cacheMisses int64

	// Stage metrics
	stageCount     map[string]int64
	stageDurations map[string][]time.Duration

	// Storage metrics (run history store)
	storageOperations map[string]int64 // operation -> count
	storageSize       int64

	// Watch queue metrics
	queueSize int64

	// Schema metrics
	activeSchemas map[string]int64
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		runsByStatus:      make(map[string]int64),
		stageCount:        make(map[string]int64),
		stageDurations:    make(map[string][]time.Duration),
		storageOperations: make(map[string]int64),
		activeSchemas:     make(map[string]int64),
	}
}

// RecordRunStart records the start of a generation run.
func (mc *MetricsCollector) RecordRunStart(runID, schema string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.runCount++
	mc.currentConcurrent++
	mc.runsByStatus["started"]++
	mc.activeSchemas[schema]++

	slog.Debug("Run started", "run.count", mc.runCount, "concurrent", mc.currentConcurrent)
}

// RecordRunEnd records the end of a generation run.
func (mc *MetricsCollector) RecordRunEnd(duration time.Duration, success bool, schema string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.runDurations = append(mc.runDurations, duration)
	mc.currentConcurrent--

	if success {
		mc.runsByStatus["completed"]++
		slog.Debug("Run completed", "duration_ms", duration.Milliseconds())
	} else {
		mc.runErrors++
		mc.runsByStatus["failed"]++
		slog.Debug("Run failed", "duration_ms", duration.Milliseconds())
	}

	if mc.activeSchemas[schema] > 0 {
		mc.activeSchemas[schema]--
	}
}

// RecordCacheHit records a cache hit.
func (mc *MetricsCollector) RecordCacheHit(cacheType string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.cacheHits++
	slog.Debug("Cache hit", "type", cacheType, "total_hits", mc.cacheHits)
}

// RecordCacheMiss records a cache miss.
func (mc *MetricsCollector) RecordCacheMiss(cacheType string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.cacheMisses++
	slog.Debug("Cache miss", "type", cacheType, "total_misses", mc.cacheMisses)
}

// RecordStage records a stage execution.
func (mc *MetricsCollector) RecordStage(stageName string, duration time.Duration, success bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.stageCount[stageName]++
	mc.stageDurations[stageName] = append(mc.stageDurations[stageName], duration)

	if !success {
		mc.runErrors++
	}

	slog.Debug("Stage completed", "stage", stageName, "duration_ms", duration.Milliseconds())
}

// RecordStorageOperation records a history store operation.
func (mc *MetricsCollector) RecordStorageOperation(operation string, sizeBytes int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.storageOperations[operation]++
	mc.storageSize += sizeBytes

	slog.Debug("Storage operation", "operation", operation, "size_bytes", sizeBytes)
}

// RecordQueuedChange records a schema change queued for regeneration.
func (mc *MetricsCollector) RecordQueuedChange() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.queueSize++
	slog.Debug("Change queued", "queue_size", mc.queueSize)
}

// RemoveQueuedChanges records drained changes from the watch queue.
func (mc *MetricsCollector) RemoveQueuedChanges(count int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.queueSize -= count
	if mc.queueSize < 0 {
		mc.queueSize = 0
	}

	slog.Debug("Changes drained from queue", "count", count, "queue_size", mc.queueSize)
}

// GetSnapshot returns a snapshot of current metrics.
func (mc *MetricsCollector) GetSnapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Timestamp:         time.Now(),
		TotalRuns:         mc.runCount,
		CurrentConcurrent: mc.currentConcurrent,
		RunErrors:         mc.runErrors,
		RunsByStatus:      copyStringInt64Map(mc.runsByStatus),
		CacheHits:         mc.cacheHits,
		CacheMisses:       mc.cacheMisses,
		CacheHitRate:      calculateHitRate(mc.cacheHits, mc.cacheMisses),
		StageCount:        copyStringInt64Map(mc.stageCount),
		StorageOperations: copyStringInt64Map(mc.storageOperations),
		StorageSizeBytes:  mc.storageSize,
		QueueSize:         mc.queueSize,
		ActiveSchemas:     len(mc.activeSchemas),
	}

	// Calculate percentiles
	if len(mc.runDurations) > 0 {
		snapshot.P50RunDuration = calculatePercentile(mc.runDurations, 50)
		snapshot.P95RunDuration = calculatePercentile(mc.runDurations, 95)
		snapshot.P99RunDuration = calculatePercentile(mc.runDurations, 99)
		snapshot.AvgRunDuration = calculateAverage(mc.runDurations)
	}

	return snapshot
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	Timestamp         time.Time
	TotalRuns         int64
	CurrentConcurrent int64
	RunErrors         int64
	RunsByStatus      map[string]int64
	CacheHits         int64
	CacheMisses       int64
	CacheHitRate      float64
	P50RunDuration    time.Duration
	P95RunDuration    time.Duration
	P99RunDuration    time.Duration
	AvgRunDuration    time.Duration
	StageCount        map[string]int64
	StorageOperations map[string]int64
	StorageSizeBytes  int64
	QueueSize         int64
	ActiveSchemas     int
}

// FormatMetrics returns a human-readable string of metrics.
func (s MetricsSnapshot) FormatMetrics() string {
	cacheTotal := s.CacheHits + s.CacheMisses
	successRate := 0.0
	if s.TotalRuns > 0 {
		successRate = float64(s.TotalRuns-s.RunErrors) / float64(s.TotalRuns) * 100
	}

	output := fmt.Sprintf(`
=== StructGen Metrics ===
Timestamp: %s

Run Metrics:
  Total Runs: %d
  Current Concurrent: %d
  Run Errors: %d (%.2f%% error rate)
  Success Rate: %.2f%%

Run Durations:
  Average: %v
  P50: %v
  P95: %v
  P99: %v

Cache Metrics:
  Cache Hits: %d
  Cache Misses: %d
  Total Cache Ops: %d
  Hit Rate: %.2f%%

Stage Metrics: %d stages tracked
  Details: %v

Storage Metrics:
  Total Operations: %d
  Total Size: %d bytes (%.2f MB)
  Operations by Type: %v

Queue Metrics:
  Pending Changes: %d

Schema Metrics:
  Active Schemas: %d

Status Breakdown: %v
======================
`,
		s.Timestamp.Format(time.RFC3339),
		s.TotalRuns,
		s.CurrentConcurrent,
		s.RunErrors,
		float64(s.RunErrors)/float64(s.TotalRuns+1)*100,
		successRate,
		s.AvgRunDuration,
		s.P50RunDuration,
		s.P95RunDuration,
		s.P99RunDuration,
		s.CacheHits,
		s.CacheMisses,
		cacheTotal,
		s.CacheHitRate*100,
		len(s.StageCount),
		s.StageCount,
		sumInt64Values(s.StorageOperations),
		s.StorageSizeBytes,
		float64(s.StorageSizeBytes)/(1024*1024),
		s.StorageOperations,
		s.QueueSize,
		s.ActiveSchemas,
		s.RunsByStatus,
	)

	return output
}

// Helper functions

func copyStringInt64Map(m map[string]int64) map[string]int64 {
	result := make(map[string]int64)
	for k, v := range m {
		result[k] = v
	}
	return result
}

func calculateHitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func calculateAverage(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

func calculatePercentile(durations []time.Duration, percentile int) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	// Sort durations for accurate percentile calculation
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// Calculate index
	index := (len(sorted) * percentile) / 100
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}

func sumInt64Values(m map[string]int64) int64 {
	var sum int64
	for _, v := range m {
		sum += v
	}
	return sum
}

// GlobalMetricsCollector holds the singleton metrics collector.
var globalMetricsCollector *MetricsCollector

// InitMetricsCollector initializes the global metrics collector.
func InitMetricsCollector() *MetricsCollector {
	if globalMetricsCollector == nil {
		globalMetricsCollector = NewMetricsCollector()
	}
	return globalMetricsCollector
}

// GetMetricsCollector returns the global metrics collector.
func GetMetricsCollector() *MetricsCollector {
	if globalMetricsCollector == nil {
		return InitMetricsCollector()
	}
	return globalMetricsCollector
}

// SetMetricsCollector sets the global metrics collector (for testing).
func SetMetricsCollector(mc *MetricsCollector) {
	globalMetricsCollector = mc
}

// ResetMetricsCollector resets the global metrics collector (for testing).
func ResetMetricsCollector() {
	globalMetricsCollector = nil
}
