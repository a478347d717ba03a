// Package metrics collects service-level counters for the advisor.
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds atomic counters for the recommendation pipeline.
type Metrics struct {
	queriesTotal     uint64
	queriesErrors    uint64
	queriesCacheHits uint64
	queriesCacheMiss uint64

	retrievalTotal    uint64
	retrievalErrors   uint64
	retrievalDuration float64

	llmCallsTotal       uint64
	llmCallsErrors      uint64
	llmCallsDuration    float64
	llmTokensPrompt     uint64
	llmTokensCompletion uint64

	crmTotal    uint64
	crmDuration float64

	enrichTotal    uint64
	enrichDuration float64

	documentsIngested uint64
	ingestErrors      uint64

	startTime  time.Time
	durationMu sync.Mutex
}

var (
	global *Metrics
	once   sync.Once
)

// Get returns the global metrics instance.
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{startTime: time.Now()}
	})
	return global
}

// RecordQuery records one recommendation request.
func (m *Metrics) RecordQuery(cacheHit bool, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
		return
	}
	if cacheHit {
		atomic.AddUint64(&m.queriesCacheHits, 1)
	} else {
		atomic.AddUint64(&m.queriesCacheMiss, 1)
	}
}

// RecordRetrieval records a vector search.
func (m *Metrics) RecordRetrieval(duration time.Duration, err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
		return
	}
	m.addDuration(&m.retrievalDuration, duration)
}

// RecordLLMCall records one LLM completion with its token usage.
func (m *Metrics) RecordLLMCall(duration time.Duration, promptTokens, completionTokens int, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}
	m.addDuration(&m.llmCallsDuration, duration)
	if promptTokens > 0 {
		atomic.AddUint64(&m.llmTokensPrompt, uint64(promptTokens))
	}
	if completionTokens > 0 {
		atomic.AddUint64(&m.llmTokensCompletion, uint64(completionTokens))
	}
}

// RecordCRMFetch records one CRM history fetch.
func (m *Metrics) RecordCRMFetch(duration time.Duration) {
	atomic.AddUint64(&m.crmTotal, 1)
	m.addDuration(&m.crmDuration, duration)
}

// RecordEnrichment records one enrichment pass.
func (m *Metrics) RecordEnrichment(duration time.Duration) {
	atomic.AddUint64(&m.enrichTotal, 1)
	m.addDuration(&m.enrichDuration, duration)
}

// RecordIngestion records a batch ingestion outcome.
func (m *Metrics) RecordIngestion(documents int, err error) {
	if err != nil {
		atomic.AddUint64(&m.ingestErrors, 1)
		return
	}
	atomic.AddUint64(&m.documentsIngested, uint64(documents))
}

func (m *Metrics) addDuration(target *float64, d time.Duration) {
	m.durationMu.Lock()
	*target += d.Seconds()
	m.durationMu.Unlock()
}

// Export renders the counters in Prometheus text exposition format.
func (m *Metrics) Export(namespace, subsystem string) string {
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}

	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	crmDuration := m.crmDuration
	enrichDuration := m.enrichDuration
	m.durationMu.Unlock()

	var sb strings.Builder
	counter := func(name, help string, value uint64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s counter\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %d\n\n", prefix, name, value))
	}
	gauge := func(name, help string, value float64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s gauge\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %.6f\n\n", prefix, name, value))
	}

	counter("queries_total", "Total number of recommendation queries.", atomic.LoadUint64(&m.queriesTotal))
	counter("queries_errors_total", "Number of query errors.", atomic.LoadUint64(&m.queriesErrors))
	counter("queries_cache_hits_total", "Number of cache hits.", atomic.LoadUint64(&m.queriesCacheHits))
	counter("queries_cache_misses_total", "Number of cache misses.", atomic.LoadUint64(&m.queriesCacheMiss))

	counter("retrieval_total", "Total number of vector searches.", atomic.LoadUint64(&m.retrievalTotal))
	counter("retrieval_errors_total", "Number of vector search errors.", atomic.LoadUint64(&m.retrievalErrors))
	gauge("retrieval_duration_seconds_total", "Total vector search duration.", retrievalDuration)

	counter("llm_calls_total", "Total number of LLM calls.", atomic.LoadUint64(&m.llmCallsTotal))
	counter("llm_calls_errors_total", "Number of LLM call errors.", atomic.LoadUint64(&m.llmCallsErrors))
	gauge("llm_calls_duration_seconds_total", "Total LLM call duration.", llmDuration)
	counter("llm_tokens_prompt_total", "Total prompt tokens.", atomic.LoadUint64(&m.llmTokensPrompt))
	counter("llm_tokens_completion_total", "Total completion tokens.", atomic.LoadUint64(&m.llmTokensCompletion))

	counter("crm_fetches_total", "Total number of CRM history fetches.", atomic.LoadUint64(&m.crmTotal))
	gauge("crm_fetch_duration_seconds_total", "Total CRM fetch duration.", crmDuration)

	counter("enrichment_total", "Total number of enrichment passes.", atomic.LoadUint64(&m.enrichTotal))
	gauge("enrichment_duration_seconds_total", "Total enrichment duration.", enrichDuration)

	counter("documents_ingested_total", "Total documents ingested.", atomic.LoadUint64(&m.documentsIngested))
	counter("ingest_errors_total", "Number of ingestion errors.", atomic.LoadUint64(&m.ingestErrors))

	gauge("uptime_seconds", "Service uptime in seconds.", time.Since(m.startTime).Seconds())

	return sb.String()
}

// Stats returns the current counters as a JSON-friendly map.
func (m *Metrics) Stats() map[string]interface{} {
	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	llmDuration := m.llmCallsDuration
	crmDuration := m.crmDuration
	enrichDuration := m.enrichDuration
	m.durationMu.Unlock()

	cacheHits := atomic.LoadUint64(&m.queriesCacheHits)
	cacheMisses := atomic.LoadUint64(&m.queriesCacheMiss)
	cacheTotal := cacheHits + cacheMisses
	cacheHitRate := 0.0
	if cacheTotal > 0 {
		cacheHitRate = float64(cacheHits) / float64(cacheTotal)
	}

	return map[string]interface{}{
		"queries": map[string]interface{}{
			"total":          atomic.LoadUint64(&m.queriesTotal),
			"errors":         atomic.LoadUint64(&m.queriesErrors),
			"cache_hits":     cacheHits,
			"cache_misses":   cacheMisses,
			"cache_hit_rate": cacheHitRate,
		},
		"retrieval": map[string]interface{}{
			"total":               atomic.LoadUint64(&m.retrievalTotal),
			"errors":              atomic.LoadUint64(&m.retrievalErrors),
			"total_duration_secs": retrievalDuration,
		},
		"llm": map[string]interface{}{
			"calls_total":         atomic.LoadUint64(&m.llmCallsTotal),
			"errors":              atomic.LoadUint64(&m.llmCallsErrors),
			"total_duration_secs": llmDuration,
			"tokens_prompt":       atomic.LoadUint64(&m.llmTokensPrompt),
			"tokens_completion":   atomic.LoadUint64(&m.llmTokensCompletion),
		},
		"crm": map[string]interface{}{
			"fetches_total":       atomic.LoadUint64(&m.crmTotal),
			"total_duration_secs": crmDuration,
		},
		"enrichment": map[string]interface{}{
			"total":               atomic.LoadUint64(&m.enrichTotal),
			"total_duration_secs": enrichDuration,
		},
		"ingestion": map[string]interface{}{
			"documents_ingested": atomic.LoadUint64(&m.documentsIngested),
			"errors":             atomic.LoadUint64(&m.ingestErrors),
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
	}
}

// Reset zeroes all counters. Test helper.
func (m *Metrics) Reset() {
	atomic.StoreUint64(&m.queriesTotal, 0)
	atomic.StoreUint64(&m.queriesErrors, 0)
	atomic.StoreUint64(&m.queriesCacheHits, 0)
	atomic.StoreUint64(&m.queriesCacheMiss, 0)
	atomic.StoreUint64(&m.retrievalTotal, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.llmCallsTotal, 0)
	atomic.StoreUint64(&m.llmCallsErrors, 0)
	atomic.StoreUint64(&m.llmTokensPrompt, 0)
	atomic.StoreUint64(&m.llmTokensCompletion, 0)
	atomic.StoreUint64(&m.crmTotal, 0)
	atomic.StoreUint64(&m.enrichTotal, 0)
	atomic.StoreUint64(&m.documentsIngested, 0)
	atomic.StoreUint64(&m.ingestErrors, 0)

	m.durationMu.Lock()
	m.retrievalDuration = 0
	m.llmCallsDuration = 0
	m.crmDuration = 0
	m.enrichDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
