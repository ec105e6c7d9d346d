package llm

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/curiolabs/curio/internal/config"
)

// NewProvider builds the configured default provider with its model
// fallback chain and metrics collection wired in.
func NewProvider(cfg *config.Config) (Provider, error) {
	name := cfg.LLM.DefaultProvider
	if name == "" {
		name = "gemini"
	}

	providerCfg, ok := cfg.LLM.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not found in configuration", name)
	}

	apiKey := providerCfg.APIKey
	if apiKey == "" {
		apiKey = apiKeyFromEnv(name)
	}

	llmCfg := &ProviderConfig{
		Name:        name,
		Endpoint:    providerCfg.Endpoint,
		APIKey:      apiKey,
		Model:       providerCfg.Model,
		MaxTokens:   providerCfg.MaxTokens,
		Temperature: providerCfg.Temperature,
	}
	if cfg.LLM.RequestTimeoutSec > 0 {
		llmCfg.Timeout = time.Duration(cfg.LLM.RequestTimeoutSec) * time.Second
	}

	return assemble(name, llmCfg, providerCfg.FallbackModels)
}

// NewProviderByName builds a provider without reading the full application
// config. Useful for tests and one-off tooling.
func NewProviderByName(name string, cfg *ProviderConfig) (Provider, error) {
	return assemble(name, cfg, nil)
}

// assemble constructs the named provider and layers the fallback chain and
// metrics wrapper over it.
func assemble(name string, cfg *ProviderConfig, fallbackModels []string) (Provider, error) {
	var provider Provider

	switch name {
	case "gemini":
		provider = NewGeminiProvider(cfg)
	case "ollama":
		ollama := NewOllamaProvider(cfg)
		// Pull the model into memory ahead of the first request; cold
		// starts can take well over a minute.
		if ollama.Available() {
			ollama.WarmupAsync(context.Background())
		}
		provider = ollama
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	if len(fallbackModels) > 0 {
		chain := make([]string, 0, len(fallbackModels)+1)
		if cfg != nil && cfg.Model != "" {
			chain = append(chain, cfg.Model)
		}
		for _, m := range fallbackModels {
			if cfg == nil || m != cfg.Model {
				chain = append(chain, m)
			}
		}
		provider = NewFallbackProvider(provider, chain)
	}

	metrics := NewMetricsProvider(provider)
	RegisterMetricsProvider(metrics)
	return metrics, nil
}

// apiKeyFromEnv returns the conventional environment variable value for a
// provider's API key.
func apiKeyFromEnv(name string) string {
	switch name {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// AvailableProviders lists configured providers that are ready to serve,
// in name order.
func AvailableProviders(cfg *config.Config) []string {
	var available []string

	for name, providerCfg := range cfg.LLM.Providers {
		apiKey := providerCfg.APIKey
		if apiKey == "" {
			apiKey = apiKeyFromEnv(name)
		}

		llmCfg := &ProviderConfig{
			Name:     name,
			Endpoint: providerCfg.Endpoint,
			APIKey:   apiKey,
			Model:    providerCfg.Model,
		}

		var provider Provider
		switch name {
		case "gemini":
			provider = NewGeminiProvider(llmCfg)
		case "ollama":
			provider = NewOllamaProvider(llmCfg)
		default:
			continue
		}

		if provider.Available() {
			available = append(available, name)
		}
	}

	sort.Strings(available)
	return available
}
