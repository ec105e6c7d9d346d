package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/curiolabs/curio/internal/logging"
)

// TimeoutConfig defines the 3-phase timeout system for Ollama.
// Phase 1 (Connection): Time to establish HTTP connection and send headers
// Phase 2 (First Token): Time to receive first token after request sent (model loading happens here)
// Phase 3 (Streaming): Max time between tokens during response streaming
type TimeoutConfig struct {
	ConnectionTimeout time.Duration // Time to establish HTTP connection (default: 30s)
	FirstTokenTimeout time.Duration // Time to receive first token after connection (default: 120s for cold start)
	StreamIdleTimeout time.Duration // Max time between tokens during streaming (default: 30s, detects stalled streams)
}

// DefaultTimeoutConfig returns sensible defaults for Ollama timeouts.
// Cold start (model loading) can take 30-90+ seconds depending on model
// size and hardware.
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ConnectionTimeout: 30 * time.Second,
		FirstTokenTimeout: 120 * time.Second,
		StreamIdleTimeout: 30 * time.Second,
	}
}

// RemoteTimeoutConfig returns timeout configuration for remote Ollama
// servers, which need longer limits: network latency, cold start of large
// models, and queued requests from other users all add up.
func RemoteTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		ConnectionTimeout: 60 * time.Second,
		FirstTokenTimeout: 300 * time.Second,
		StreamIdleTimeout: 60 * time.Second,
	}
}

// isRemoteEndpoint checks if the Ollama endpoint is a remote server (not localhost).
func isRemoteEndpoint(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false // Assume local if can't parse
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return false
	}
	if host == "host.docker.internal" || host == "docker.for.mac.localhost" {
		return false
	}
	return true
}

// OllamaProvider implements the Provider interface for Ollama.
// It also implements Embedder via the /api/embeddings endpoint.
type OllamaProvider struct {
	config        *ProviderConfig
	client        *http.Client
	timeoutConfig TimeoutConfig
}

// OllamaOption is a functional option for configuring OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithTimeoutConfig sets custom timeout configuration for the Ollama provider.
func WithTimeoutConfig(cfg TimeoutConfig) OllamaOption {
	return func(p *OllamaProvider) {
		p.timeoutConfig = cfg
		if transport, ok := p.client.Transport.(*http.Transport); ok {
			transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectionTimeout}).DialContext
			transport.ResponseHeaderTimeout = cfg.FirstTokenTimeout
		}
	}
}

// WithFirstTokenTimeout sets the first token (cold start) timeout.
func WithFirstTokenTimeout(d time.Duration) OllamaOption {
	return func(p *OllamaProvider) {
		p.timeoutConfig.FirstTokenTimeout = d
		if transport, ok := p.client.Transport.(*http.Transport); ok {
			transport.ResponseHeaderTimeout = d
		}
	}
}

// WithStreamIdleTimeout sets the streaming idle timeout.
func WithStreamIdleTimeout(d time.Duration) OllamaOption {
	return func(p *OllamaProvider) {
		p.timeoutConfig.StreamIdleTimeout = d
	}
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(cfg *ProviderConfig, opts ...OllamaOption) *OllamaProvider {
	if cfg == nil {
		cfg = DefaultConfig("ollama")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://127.0.0.1:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}

	// Select timeout config based on whether this is a remote endpoint
	var timeoutConfig TimeoutConfig
	if isRemoteEndpoint(cfg.Endpoint) {
		timeoutConfig = RemoteTimeoutConfig()
	} else {
		timeoutConfig = DefaultTimeoutConfig()
	}

	p := &OllamaProvider{
		config:        cfg,
		timeoutConfig: timeoutConfig,
		client: &http.Client{
			// IMPORTANT: Do NOT set http.Client.Timeout here!
			// Client.Timeout applies to the ENTIRE request lifecycle including
			// body reading. For streaming responses that kills long generations
			// mid-stream. The 3-phase system below allows long cold starts
			// while still detecting hangs.
			Transport: &http.Transport{
				// Phase 1: connection establishment.
				DialContext: (&net.Dialer{Timeout: timeoutConfig.ConnectionTimeout}).DialContext,
				// Headers arrive once the model starts responding, so this
				// must cover model loading on cold start.
				ResponseHeaderTimeout: timeoutConfig.FirstTokenTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Available checks if Ollama is running and has at least one model.
// An Ollama endpoint with 0 models is not useful as a backend.
func (p *OllamaProvider) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.config.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	return len(result.Models) > 0
}

// Chat sends a chat request to Ollama using streaming with 3-phase timeout
// monitoring. Tool declarations on the request are passed through to Ollama's
// native tool calling; returned tool calls surface on the response.
func (p *OllamaProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	ollamaReq := ollamaChatRequest{
		Model:    req.Model,
		Stream:   true, // Use streaming for better timeout control
		Messages: buildOllamaMessages(req),
		Tools:    buildOllamaTools(req.Tools),
	}

	if ollamaReq.Model == "" {
		ollamaReq.Model = p.config.Model
	}

	// Set options
	ollamaReq.Options.Temperature = req.Temperature
	if ollamaReq.Options.Temperature == 0 {
		ollamaReq.Options.Temperature = p.config.Temperature
	}
	ollamaReq.Options.NumPredict = req.MaxTokens
	if ollamaReq.Options.NumPredict == 0 {
		ollamaReq.Options.NumPredict = p.config.MaxTokens
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return p.handleStreamingResponse(ctx, resp.Body, start)
}

// buildOllamaMessages converts conversation messages to Ollama's format.
// The system prompt becomes the first message; tool results travel with
// role "tool"; assistant tool-call echoes carry the tool_calls field.
func buildOllamaMessages(req *ChatRequest) []ollamaMessage {
	messages := make([]ollamaMessage, 0, len(req.Messages)+1)

	if req.SystemPrompt != "" {
		messages = append(messages, ollamaMessage{
			Role:    "system",
			Content: req.SystemPrompt,
		})
	}

	for _, msg := range req.Messages {
		switch {
		case msg.ToolCall != nil:
			messages = append(messages, ollamaMessage{
				Role: RoleAssistant,
				ToolCalls: []ollamaToolCall{{
					Function: ollamaFunctionCall{
						Name:      msg.ToolCall.Name,
						Arguments: json.RawMessage(msg.ToolCall.Arguments),
					},
				}},
			})
		case msg.ToolResult != nil:
			messages = append(messages, ollamaMessage{
				Role:    RoleTool,
				Content: msg.ToolResult.Content,
			})
		default:
			messages = append(messages, ollamaMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	return messages
}

func buildOllamaTools(tools []Tool) []ollamaToolDef {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]ollamaToolDef, 0, len(tools))
	for _, t := range tools {
		defs = append(defs, ollamaToolDef{
			Type: "function",
			Function: ollamaFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return defs
}

// handleStreamingResponse processes Ollama's streaming response with TTFT
// and idle timeout monitoring:
// - Phase 1 (connection): handled by the transport's ResponseHeaderTimeout
// - Phase 2 (first-token): fails if first token not received within FirstTokenTimeout
// - Phase 3 (streaming): fails if the gap between tokens exceeds StreamIdleTimeout
func (p *OllamaProvider) handleStreamingResponse(ctx context.Context, body io.Reader, start time.Time) (*ChatResponse, error) {
	type streamChunk struct {
		chunk ollamaChatResponse
		err   error
	}

	chunkChan := make(chan streamChunk, 1)

	// Reader goroutine. Sends check the context first so a cancelled
	// consumer never leaves this goroutine blocked on the channel.
	go func() {
		defer close(chunkChan)
		decoder := json.NewDecoder(body)
		for {
			var chunk ollamaChatResponse
			if err := decoder.Decode(&chunk); err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
						return
					case chunkChan <- streamChunk{err: err}:
					}
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			case chunkChan <- streamChunk{chunk: chunk}:
			}
			if chunk.Done {
				return
			}
		}
	}()

	// Accumulate response with size limit to prevent memory exhaustion
	var fullContent strings.Builder
	var totalBytes int64
	var modelName string
	var promptTokens, completionTokens int
	var toolCalls []ollamaToolCall
	firstTokenReceived := false
	firstTokenTimer := time.NewTimer(p.timeoutConfig.FirstTokenTimeout)
	defer firstTokenTimer.Stop()

	var idleTimer *time.Timer

	for {
		var timeout <-chan time.Time
		if !firstTokenReceived {
			// Phase 2: Waiting for first token
			timeout = firstTokenTimer.C
		} else if idleTimer != nil {
			// Phase 3: Monitoring idle time between tokens
			timeout = idleTimer.C
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case chunk, ok := <-chunkChan:
			if !ok {
				// Channel closed, streaming complete
				if modelName == "" {
					return nil, fmt.Errorf("empty response from Ollama")
				}
				chatResp := &ChatResponse{
					Content:          fullContent.String(),
					Model:            modelName,
					PromptTokens:     promptTokens,
					CompletionTokens: completionTokens,
					TokensUsed:       promptTokens + completionTokens,
					Duration:         time.Since(start),
					FinishReason:     "stop",
				}
				if len(toolCalls) > 0 {
					chatResp.FinishReason = "tool_calls"
					chatResp.ToolCalls = convertOllamaToolCalls(toolCalls)
				}
				return chatResp, nil
			}

			if chunk.err != nil {
				return nil, fmt.Errorf("decode stream chunk: %w", chunk.err)
			}

			// First token received
			if !firstTokenReceived {
				firstTokenReceived = true
				firstTokenTimer.Stop()
				idleTimer = time.NewTimer(p.timeoutConfig.StreamIdleTimeout)
				defer idleTimer.Stop()
			} else if idleTimer != nil {
				// Reset idle timer on each token
				if !idleTimer.Stop() {
					select {
					case <-idleTimer.C:
					default:
					}
				}
				idleTimer.Reset(p.timeoutConfig.StreamIdleTimeout)
			}

			if chunk.chunk.Message.Content != "" {
				contentLen := int64(len(chunk.chunk.Message.Content))
				if totalBytes+contentLen > MaxStreamedResponseSize {
					return nil, fmt.Errorf("response size exceeded limit (%d bytes) - possible runaway generation", MaxStreamedResponseSize)
				}
				totalBytes += contentLen
				fullContent.WriteString(chunk.chunk.Message.Content)
			}

			if len(chunk.chunk.Message.ToolCalls) > 0 {
				toolCalls = append(toolCalls, chunk.chunk.Message.ToolCalls...)
			}

			// Store metadata from final chunk
			if chunk.chunk.Done {
				modelName = chunk.chunk.Model
				promptTokens = chunk.chunk.PromptEvalCount
				completionTokens = chunk.chunk.EvalCount
			} else if modelName == "" {
				modelName = chunk.chunk.Model
			}

		case <-timeout:
			if !firstTokenReceived {
				return nil, fmt.Errorf("timeout waiting for first token (waited %v, limit %v) - model may be loading or request stalled",
					time.Since(start), p.timeoutConfig.FirstTokenTimeout)
			}
			return nil, fmt.Errorf("stream idle timeout (no token received for %v) - model appears to have stalled",
				p.timeoutConfig.StreamIdleTimeout)
		}
	}
}

func convertOllamaToolCalls(calls []ollamaToolCall) []ToolCall {
	result := make([]ToolCall, len(calls))
	for i, call := range calls {
		args := "{}"
		if len(call.Function.Arguments) > 0 {
			args = string(call.Function.Arguments)
		}
		result[i] = ToolCall{
			Name:      call.Function.Name,
			Arguments: args,
		}
	}
	return result
}

// Embed returns the embedding vector for text via /api/embeddings.
// An empty model falls back to the provider's configured model.
func (p *OllamaProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if model == "" {
		model = p.config.Model
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, fmt.Errorf("ollama embed error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}

	return embedResp.Embedding, nil
}

// Warmup sends a minimal request to pre-load the model into memory,
// avoiding cold start latency on the first real request.
func (p *OllamaProvider) Warmup(ctx context.Context) error {
	req := &ChatRequest{
		Messages:  []Message{{Role: RoleUser, Content: "Hi"}},
		MaxTokens: 1,
	}

	// FirstTokenTimeout covers the cold start phase
	warmupCtx, cancel := context.WithTimeout(ctx, p.timeoutConfig.FirstTokenTimeout)
	defer cancel()

	if _, err := p.Chat(warmupCtx, req); err != nil {
		return fmt.Errorf("warmup failed: %w", err)
	}
	return nil
}

// WarmupAsync starts model warmup in the background and returns immediately.
// Warmup is an optional optimization: on failure the first real request just
// experiences cold start latency, so errors are logged rather than returned.
func (p *OllamaProvider) WarmupAsync(ctx context.Context) {
	go func() {
		start := time.Now()
		log := logging.Global().WithComponent("ollama")
		if err := p.Warmup(ctx); err != nil {
			log.Debug("model warmup failed: %v", err)
			return
		}
		log.Debug("model %s warmed up in %v", p.config.Model, time.Since(start))
	}()
}

// OllamaModel represents a model available on an Ollama server.
type OllamaModel struct {
	Name       string `json:"name"`
	Model      string `json:"model"`
	ModifiedAt string `json:"modified_at"`
	Size       int64  `json:"size"`
}

// ollamaTagsResponse represents the /api/tags response.
type ollamaTagsResponse struct {
	Models []OllamaModel `json:"models"`
}

// FetchOllamaModels fetches the list of models from an Ollama server at the
// given endpoint. Standalone so callers can probe a server without building
// a full provider.
func FetchOllamaModels(endpoint string) ([]OllamaModel, error) {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:11434"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to Ollama at %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var tagsResp ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tagsResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return tagsResp.Models, nil
}

// Ollama API types
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
	Tools    []ollamaToolDef `json:"tools,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolDef struct {
	Type     string            `json:"type"`
	Function ollamaFunctionDef `json:"function"`
}

type ollamaFunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

type ollamaToolCall struct {
	Function ollamaFunctionCall `json:"function"`
}

type ollamaFunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}
