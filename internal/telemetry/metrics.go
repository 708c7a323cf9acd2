package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects memory-subsystem runtime metrics.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	SessionsStarted  int64
	SessionsEnded    int64
	MemoriesCreated  int64
	MemoriesPromoted int64
	MemoriesDeduped  int64
	CacheHits        int64
	CacheMisses      int64
	SummaryFallbacks int64
	StorageErrors    int64

	// Gauges
	ActiveSessions int64

	// Histograms (simplified)
	storeLatencies   []time.Duration
	summaryLatencies []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		storeLatencies:   make([]time.Duration, 0, 1000),
		summaryLatencies: make([]time.Duration, 0, 1000),
	}
}

// IncSessionsStarted increments the sessions started counter.
func (m *Metrics) IncSessionsStarted() {
	atomic.AddInt64(&m.SessionsStarted, 1)
	atomic.AddInt64(&m.ActiveSessions, 1)
}

// IncSessionsEnded increments the sessions ended counter.
func (m *Metrics) IncSessionsEnded() {
	atomic.AddInt64(&m.SessionsEnded, 1)
	atomic.AddInt64(&m.ActiveSessions, -1)
}

// IncMemoriesCreated increments the memories created counter.
func (m *Metrics) IncMemoriesCreated() {
	atomic.AddInt64(&m.MemoriesCreated, 1)
}

// IncMemoriesPromoted increments the memories promoted counter.
func (m *Metrics) IncMemoriesPromoted() {
	atomic.AddInt64(&m.MemoriesPromoted, 1)
}

// IncMemoriesDeduped increments the counter of writes collapsed into an
// existing similar record.
func (m *Metrics) IncMemoriesDeduped() {
	atomic.AddInt64(&m.MemoriesDeduped, 1)
}

// IncCacheHits increments the context cache hit counter.
func (m *Metrics) IncCacheHits() {
	atomic.AddInt64(&m.CacheHits, 1)
}

// IncCacheMisses increments the context cache miss counter.
func (m *Metrics) IncCacheMisses() {
	atomic.AddInt64(&m.CacheMisses, 1)
}

// IncSummaryFallbacks increments the summarizer fallback counter.
func (m *Metrics) IncSummaryFallbacks() {
	atomic.AddInt64(&m.SummaryFallbacks, 1)
}

// IncStorageErrors increments the storage error counter.
func (m *Metrics) IncStorageErrors() {
	atomic.AddInt64(&m.StorageErrors, 1)
}

// RecordStoreLatency records the duration of a store operation.
func (m *Metrics) RecordStoreLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeLatencies = append(m.storeLatencies, d)
}

// RecordSummaryLatency records the duration of a summarizer call.
func (m *Metrics) RecordSummaryLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryLatencies = append(m.summaryLatencies, d)
}

// GetSummary returns a summary of collected metrics.
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"sessions_started":  atomic.LoadInt64(&m.SessionsStarted),
		"sessions_ended":    atomic.LoadInt64(&m.SessionsEnded),
		"memories_created":  atomic.LoadInt64(&m.MemoriesCreated),
		"memories_promoted": atomic.LoadInt64(&m.MemoriesPromoted),
		"memories_deduped":  atomic.LoadInt64(&m.MemoriesDeduped),
		"cache_hits":        atomic.LoadInt64(&m.CacheHits),
		"cache_misses":      atomic.LoadInt64(&m.CacheMisses),
		"summary_fallbacks": atomic.LoadInt64(&m.SummaryFallbacks),
		"storage_errors":    atomic.LoadInt64(&m.StorageErrors),
		"active_sessions":   atomic.LoadInt64(&m.ActiveSessions),
	}

	if len(m.storeLatencies) > 0 {
		var total time.Duration
		for _, d := range m.storeLatencies {
			total += d
		}
		summary["avg_store_latency_ms"] = total.Milliseconds() / int64(len(m.storeLatencies))
	}

	if len(m.summaryLatencies) > 0 {
		var total time.Duration
		for _, d := range m.summaryLatencies {
			total += d
		}
		summary["avg_summary_latency_ms"] = total.Milliseconds() / int64(len(m.summaryLatencies))
	}

	return summary
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.SessionsStarted, 0)
	atomic.StoreInt64(&m.SessionsEnded, 0)
	atomic.StoreInt64(&m.MemoriesCreated, 0)
	atomic.StoreInt64(&m.MemoriesPromoted, 0)
	atomic.StoreInt64(&m.MemoriesDeduped, 0)
	atomic.StoreInt64(&m.CacheHits, 0)
	atomic.StoreInt64(&m.CacheMisses, 0)
	atomic.StoreInt64(&m.SummaryFallbacks, 0)
	atomic.StoreInt64(&m.StorageErrors, 0)
	atomic.StoreInt64(&m.ActiveSessions, 0)

	m.storeLatencies = m.storeLatencies[:0]
	m.summaryLatencies = m.summaryLatencies[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
