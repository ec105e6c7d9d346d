package llm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/curiolabs/curio/internal/logging"
)

// CostRates holds USD prices per million tokens. Prices drift; treat the
// derived numbers as estimates, not billing.
type CostRates struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// costRates maps provider names to token prices. Local inference is free.
var costRates = map[string]CostRates{
	"ollama": {0, 0},
	"gemini": {0.30, 2.50}, // Gemini 2.5 Flash
}

// CostRate returns the price table entry for a provider. Unknown providers
// get a moderate cloud rate rather than counting as free.
func CostRate(provider string) CostRates {
	if rate, ok := costRates[provider]; ok {
		return rate
	}
	return CostRates{1.0, 2.0}
}

// IsLocalProvider reports whether a provider runs on the local machine.
func IsLocalProvider(provider string) bool {
	return provider == "ollama"
}

// MetricsProvider wraps a Provider with call counting, latency tracking and
// a running cost estimate. Safe for concurrent use.
type MetricsProvider struct {
	provider Provider
	name     string
	log      *logging.Logger

	totalCalls        int64
	totalErrors       int64
	totalTokens       int64
	totalInputTokens  int64
	totalOutputTokens int64

	mu               sync.RWMutex
	totalLatency     time.Duration
	minLatency       time.Duration
	maxLatency       time.Duration
	latencyBuckets   []int64 // <100ms, <500ms, <1s, <2s, <5s, 5s+
	modelStats       map[string]*ModelMetrics
	estimatedCostUSD float64
}

// ModelMetrics tracks per-model usage within one provider.
type ModelMetrics struct {
	Calls         int64
	TotalLatency  time.Duration
	Errors        int64
	InputTokens   int64
	OutputTokens  int64
	EstimatedCost float64
}

// NewMetricsProvider wraps a provider with metrics collection.
func NewMetricsProvider(provider Provider) *MetricsProvider {
	return &MetricsProvider{
		provider:       provider,
		name:           provider.Name(),
		log:            logging.Global().WithComponent("llm"),
		minLatency:     time.Hour, // replaced on the first call
		latencyBuckets: make([]int64, 6),
		modelStats:     make(map[string]*ModelMetrics),
	}
}

// Chat forwards to the wrapped provider and records the outcome.
func (m *MetricsProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	resp, err := m.provider.Chat(ctx, req)
	latency := time.Since(start)

	atomic.AddInt64(&m.totalCalls, 1)
	if err != nil {
		atomic.AddInt64(&m.totalErrors, 1)
	}

	model := req.Model
	if model == "" && resp != nil {
		model = resp.Model
	}

	m.mu.Lock()
	m.totalLatency += latency
	if latency < m.minLatency {
		m.minLatency = latency
	}
	if latency > m.maxLatency {
		m.maxLatency = latency
	}
	m.latencyBuckets[bucketFor(latency)]++

	stats, ok := m.modelStats[model]
	if !ok {
		stats = &ModelMetrics{}
		m.modelStats[model] = stats
	}
	stats.Calls++
	stats.TotalLatency += latency
	if err != nil {
		stats.Errors++
	}
	m.mu.Unlock()

	var callCost float64
	if resp != nil && resp.TokensUsed > 0 {
		atomic.AddInt64(&m.totalTokens, int64(resp.TokensUsed))
		atomic.AddInt64(&m.totalInputTokens, int64(resp.PromptTokens))
		atomic.AddInt64(&m.totalOutputTokens, int64(resp.CompletionTokens))

		rates := CostRate(m.name)
		callCost = float64(resp.PromptTokens)/1_000_000*rates.InputPerMillion +
			float64(resp.CompletionTokens)/1_000_000*rates.OutputPerMillion

		m.mu.Lock()
		m.estimatedCostUSD += callCost
		stats.InputTokens += int64(resp.PromptTokens)
		stats.OutputTokens += int64(resp.CompletionTokens)
		stats.EstimatedCost += callCost
		m.mu.Unlock()
	}

	if err != nil {
		m.log.Warn("%s/%s failed after %v: %v", m.name, model, latency, err)
	} else if resp != nil {
		m.log.Debug("%s/%s answered in %v (%d tokens, $%.6f)", m.name, model, latency, resp.TokensUsed, callCost)
	}

	return resp, err
}

func bucketFor(latency time.Duration) int {
	switch {
	case latency < 100*time.Millisecond:
		return 0
	case latency < 500*time.Millisecond:
		return 1
	case latency < time.Second:
		return 2
	case latency < 2*time.Second:
		return 3
	case latency < 5*time.Second:
		return 4
	default:
		return 5
	}
}

// Name implements Provider.
func (m *MetricsProvider) Name() string {
	return m.name
}

// Available implements Provider.
func (m *MetricsProvider) Available() bool {
	return m.provider.Available()
}

// GetMetrics returns a snapshot of the collected metrics.
func (m *MetricsProvider) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := atomic.LoadInt64(&m.totalCalls)
	errors := atomic.LoadInt64(&m.totalErrors)

	avgLatency := time.Duration(0)
	if calls > 0 {
		avgLatency = m.totalLatency / time.Duration(calls)
	}

	errorRate := float64(0)
	if calls > 0 {
		errorRate = float64(errors) / float64(calls)
	}

	models := make(map[string]interface{}, len(m.modelStats))
	for model, stats := range m.modelStats {
		avgModelLatency := time.Duration(0)
		if stats.Calls > 0 {
			avgModelLatency = stats.TotalLatency / time.Duration(stats.Calls)
		}
		models[model] = map[string]interface{}{
			"calls":          stats.Calls,
			"errors":         stats.Errors,
			"avg_latency_ms": avgModelLatency.Milliseconds(),
			"input_tokens":   stats.InputTokens,
			"output_tokens":  stats.OutputTokens,
			"cost_usd":       stats.EstimatedCost,
		}
	}

	return map[string]interface{}{
		"provider":       m.name,
		"is_local":       IsLocalProvider(m.name),
		"total_calls":    calls,
		"total_errors":   errors,
		"error_rate":     errorRate,
		"total_tokens":   atomic.LoadInt64(&m.totalTokens),
		"input_tokens":   atomic.LoadInt64(&m.totalInputTokens),
		"output_tokens":  atomic.LoadInt64(&m.totalOutputTokens),
		"estimated_cost": m.estimatedCostUSD,
		"avg_latency_ms": avgLatency.Milliseconds(),
		"min_latency_ms": m.minLatency.Milliseconds(),
		"max_latency_ms": m.maxLatency.Milliseconds(),
		"latency_histogram": map[string]int64{
			"<100ms": m.latencyBuckets[0],
			"<500ms": m.latencyBuckets[1],
			"<1s":    m.latencyBuckets[2],
			"<2s":    m.latencyBuckets[3],
			"<5s":    m.latencyBuckets[4],
			"5s+":    m.latencyBuckets[5],
		},
		"models": models,
	}
}

// GetCostSummary returns a one-line usage summary for this provider.
func (m *MetricsProvider) GetCostSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := atomic.LoadInt64(&m.totalCalls)
	tokens := atomic.LoadInt64(&m.totalTokens)

	if calls == 0 {
		return fmt.Sprintf("%s: no calls", m.name)
	}
	if IsLocalProvider(m.name) {
		return fmt.Sprintf("%s: %d calls, %d tokens (free)", m.name, calls, tokens)
	}
	return fmt.Sprintf("%s: %d calls, %d tokens, $%.4f", m.name, calls, tokens, m.estimatedCostUSD)
}

// Reset clears all collected metrics.
func (m *MetricsProvider) Reset() {
	atomic.StoreInt64(&m.totalCalls, 0)
	atomic.StoreInt64(&m.totalErrors, 0)
	atomic.StoreInt64(&m.totalTokens, 0)
	atomic.StoreInt64(&m.totalInputTokens, 0)
	atomic.StoreInt64(&m.totalOutputTokens, 0)

	m.mu.Lock()
	m.totalLatency = 0
	m.minLatency = time.Hour
	m.maxLatency = 0
	m.latencyBuckets = make([]int64, 6)
	m.modelStats = make(map[string]*ModelMetrics)
	m.estimatedCostUSD = 0
	m.mu.Unlock()
}

// Unwrap returns the underlying provider.
func (m *MetricsProvider) Unwrap() Provider {
	return m.provider
}
