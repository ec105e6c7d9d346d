// Package llm provides Language Model provider implementations for Curio.
// Supports Google Gemini (REST, function calling, embeddings) and Ollama
// (local), with model fallback chains and client-side rate limiting.
package llm

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/curiolabs/curio/internal/logging"
)

// MaxErrorBodySize limits how much error response body we read (1MB).
// This prevents memory exhaustion from malformed/malicious error responses.
const MaxErrorBodySize = 1 * 1024 * 1024

// MaxStreamedResponseSize caps accumulated streaming output (10MB).
// A runaway generation loop should fail, not exhaust memory.
const MaxStreamedResponseSize = 10 * 1024 * 1024

// readLimitedBody reads up to maxBytes from r, returning the bytes read.
func readLimitedBody(r io.Reader, maxBytes int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, maxBytes))
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Chat sends a conversation and returns the response. When the request
	// carries tool declarations the response may hold tool calls instead
	// of text.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the provider identifier.
	Name() string

	// Available returns true if the provider is configured and reachable.
	Available() bool
}

// Embedder is implemented by providers that can produce embedding vectors.
type Embedder interface {
	// Embed returns the embedding vector for text using the given model.
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// AsEmbedder peels wrapper layers (metrics, fallback) off a Provider until
// it finds one that can embed. Reports false when none can.
func AsEmbedder(p Provider) (Embedder, bool) {
	for p != nil {
		if e, ok := p.(Embedder); ok {
			return e, true
		}
		u, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return nil, false
		}
		p = u.Unwrap()
	}
	return nil, false
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	// Model to use (provider-specific).
	Model string `json:"model"`

	// SystemPrompt sets the AI's behavior.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Messages in the conversation.
	Messages []Message `json:"messages"`

	// Tools the model may call. Empty means plain text chat.
	Tools []Tool `json:"tools,omitempty"`

	// MaxTokens limits response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-1.0).
	Temperature float64 `json:"temperature,omitempty"`
}

// Message represents a conversation message. Exactly one of Content,
// ToolCall, or ToolResult is normally set: plain text for user/assistant
// turns, ToolCall echoing what the model invoked, ToolResult carrying what
// the tool returned.
type Message struct {
	Role       string      `json:"role"` // "user", "assistant", "system", "tool"
	Content    string      `json:"content,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// Tool declares a function the model may call.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

// ToolParameters is a JSON-schema-shaped parameter declaration.
type ToolParameters struct {
	Type       string                  `json:"type"` // always "object"
	Properties map[string]ToolProperty `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
}

// ToolProperty describes a single tool parameter.
type ToolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// ToolCall is the model asking for a tool invocation. Arguments is the raw
// JSON object the model supplied.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult carries a tool's output back to the model.
type ToolResult struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ChatResponse contains the LLM's response.
type ChatResponse struct {
	Content          string        `json:"content"`
	Model            string        `json:"model"`
	TokensUsed       int           `json:"tokens_used,omitempty"`
	PromptTokens     int           `json:"prompt_tokens,omitempty"`
	CompletionTokens int           `json:"completion_tokens,omitempty"`
	Duration         time.Duration `json:"duration"`
	FinishReason     string        `json:"finish_reason,omitempty"`
	ToolCalls        []ToolCall    `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the model asked for tool invocations.
func (r *ChatResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// ProviderConfig contains configuration for an LLM provider.
type ProviderConfig struct {
	// Name identifies the provider (gemini, ollama).
	Name string

	// Endpoint is the API base URL.
	Endpoint string

	// APIKey for authentication.
	APIKey string

	// Model is the default model to use.
	Model string

	// MaxTokens default for responses.
	MaxTokens int

	// Temperature default.
	Temperature float64

	// Timeout for API calls.
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for a provider.
func DefaultConfig(name string) *ProviderConfig {
	switch name {
	case "gemini":
		return &ProviderConfig{
			Name:        "gemini",
			Endpoint:    "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.5-flash",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		}
	case "ollama":
		return &ProviderConfig{
			Name:        "ollama",
			Endpoint:    "http://127.0.0.1:11434",
			Model:       "llama3.2",
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		}
	default:
		return &ProviderConfig{
			Name:        name,
			MaxTokens:   4096,
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		}
	}
}

// baseProvider provides common functionality for HTTP-based LLM providers.
type baseProvider struct {
	config  *ProviderConfig
	client  *http.Client
	limiter *Limiter
}

// newBaseProvider creates a new base provider with defaults applied.
func newBaseProvider(cfg *ProviderConfig, providerName string) baseProvider {
	if cfg == nil {
		cfg = DefaultConfig(providerName)
	}

	defaults := DefaultConfig(providerName)
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaults.Endpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	cfg.Name = providerName

	return baseProvider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider identifier.
func (b *baseProvider) Name() string {
	return b.config.Name
}

// Available checks if the API key is configured.
func (b *baseProvider) Available() bool {
	return b.config.APIKey != ""
}

// SetLimiter installs a client-side rate limiter consulted before each call.
func (b *baseProvider) SetLimiter(l *Limiter) {
	b.limiter = l
}

// log returns a component-tagged logger for this provider.
func (b *baseProvider) log() *logging.Logger {
	return logging.Global().WithComponent(b.config.Name)
}

// waitForSlot blocks on the rate limiter, if one is installed.
func (b *baseProvider) waitForSlot(ctx context.Context, model string) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx, model)
}
