package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MetricsRegistry tracks every MetricsProvider built by the factory so
// usage can be reported across providers.
type MetricsRegistry struct {
	mu        sync.RWMutex
	providers map[string]*MetricsProvider
}

var globalRegistry = &MetricsRegistry{
	providers: make(map[string]*MetricsProvider),
}

// Register adds a MetricsProvider to the registry, replacing any previous
// entry with the same name.
func (r *MetricsRegistry) Register(provider *MetricsProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Get retrieves a provider's metrics wrapper, or nil.
func (r *MetricsRegistry) Get(name string) *MetricsProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// GetAllMetrics returns per-provider metric snapshots keyed by provider name.
func (r *MetricsRegistry) GetAllMetrics() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]interface{}, len(r.providers))
	for name, provider := range r.providers {
		result[name] = provider.GetMetrics()
	}
	return result
}

// Reset clears metrics on every registered provider.
func (r *MetricsRegistry) Reset() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, provider := range r.providers {
		provider.Reset()
	}
}

// CostSummary aggregates usage across all registered providers.
type CostSummary struct {
	TotalCalls       int64
	TotalTokens      int64
	InputTokens      int64
	OutputTokens     int64
	LocalCalls       int64
	CloudCalls       int64
	EstimatedCostUSD float64
	ByProvider       map[string]ProviderCostSummary
}

// ProviderCostSummary is one provider's slice of the cost summary.
type ProviderCostSummary struct {
	Calls        int64
	Tokens       int64
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
	IsLocal      bool
	AvgLatencyMs int64
}

// GetCostSummary aggregates usage and estimated spend across providers.
func (r *MetricsRegistry) GetCostSummary() *CostSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &CostSummary{
		ByProvider: make(map[string]ProviderCostSummary),
	}

	for name, provider := range r.providers {
		metrics := provider.GetMetrics()

		calls, _ := metrics["total_calls"].(int64)
		tokens, _ := metrics["total_tokens"].(int64)
		inputTokens, _ := metrics["input_tokens"].(int64)
		outputTokens, _ := metrics["output_tokens"].(int64)
		cost, _ := metrics["estimated_cost"].(float64)
		isLocal, _ := metrics["is_local"].(bool)
		avgLatency, _ := metrics["avg_latency_ms"].(int64)

		summary.TotalCalls += calls
		summary.TotalTokens += tokens
		summary.InputTokens += inputTokens
		summary.OutputTokens += outputTokens
		summary.EstimatedCostUSD += cost

		if isLocal {
			summary.LocalCalls += calls
		} else {
			summary.CloudCalls += calls
		}

		summary.ByProvider[name] = ProviderCostSummary{
			Calls:        calls,
			Tokens:       tokens,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			CostUSD:      cost,
			IsLocal:      isLocal,
			AvgLatencyMs: avgLatency,
		}
	}

	return summary
}

// FormatCostSummary renders the cost summary for terminal output.
func (r *MetricsRegistry) FormatCostSummary() string {
	summary := r.GetCostSummary()

	if summary.TotalCalls == 0 {
		return "No model calls recorded this session."
	}

	var sb strings.Builder
	sb.WriteString("Model usage this session\n")
	sb.WriteString("────────────────────────\n")
	sb.WriteString(fmt.Sprintf("Calls:  %d (%d local, %d cloud)\n",
		summary.TotalCalls, summary.LocalCalls, summary.CloudCalls))
	sb.WriteString(fmt.Sprintf("Tokens: %d (in: %d, out: %d)\n",
		summary.TotalTokens, summary.InputTokens, summary.OutputTokens))
	if summary.EstimatedCostUSD > 0 {
		sb.WriteString(fmt.Sprintf("Cost:   ~$%.4f\n", summary.EstimatedCostUSD))
	} else {
		sb.WriteString("Cost:   $0.00 (local inference)\n")
	}

	names := make([]string, 0, len(summary.ByProvider))
	for name := range summary.ByProvider {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ps := summary.ByProvider[name]
		if ps.Calls == 0 {
			continue
		}
		if ps.CostUSD > 0 {
			sb.WriteString(fmt.Sprintf("  %-8s %d calls, %d tokens, ~$%.4f\n",
				name+":", ps.Calls, ps.Tokens, ps.CostUSD))
		} else {
			sb.WriteString(fmt.Sprintf("  %-8s %d calls, %d tokens, free\n",
				name+":", ps.Calls, ps.Tokens))
		}
	}

	return sb.String()
}

// RegisterMetricsProvider adds a provider to the global registry.
func RegisterMetricsProvider(provider *MetricsProvider) {
	globalRegistry.Register(provider)
}

// GetMetricsProvider retrieves a provider's metrics wrapper from the global
// registry, or nil.
func GetMetricsProvider(name string) *MetricsProvider {
	return globalRegistry.Get(name)
}

// GetAllMetrics returns metric snapshots for all registered providers.
func GetAllMetrics() map[string]interface{} {
	return globalRegistry.GetAllMetrics()
}

// GetCostSummaryFormatted renders the global cost summary for terminal
// output.
func GetCostSummaryFormatted() string {
	return globalRegistry.FormatCostSummary()
}

// ResetAllMetrics clears metrics across all registered providers.
func ResetAllMetrics() {
	globalRegistry.Reset()
}
