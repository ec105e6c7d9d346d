package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// GeminiProvider implements the Provider interface for Google Gemini.
// It also implements Embedder via the embedContent endpoint.
type GeminiProvider struct {
	baseProvider
}

// NewGeminiProvider creates a new Gemini provider. Falls back to the
// GEMINI_API_KEY environment variable when the config carries no key.
func NewGeminiProvider(cfg *ProviderConfig) *GeminiProvider {
	base := newBaseProvider(cfg, "gemini")
	if base.config.APIKey == "" {
		base.config.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return &GeminiProvider{baseProvider: base}
}

// Chat sends a chat request to Gemini.
func (p *GeminiProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}

	start := time.Now()

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	if err := p.waitForSlot(ctx, model); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	// Build Gemini request
	geminiReq := geminiGenerateRequest{
		Contents: buildGeminiContents(req.Messages),
	}

	// Set generation config
	geminiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	if geminiReq.GenerationConfig.MaxOutputTokens == 0 {
		geminiReq.GenerationConfig.MaxOutputTokens = p.config.MaxTokens
	}
	geminiReq.GenerationConfig.Temperature = req.Temperature
	if geminiReq.GenerationConfig.Temperature == 0 {
		geminiReq.GenerationConfig.Temperature = p.config.Temperature
	}

	// Add system instruction if provided
	if req.SystemPrompt != "" {
		geminiReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	// Declare callable tools
	if len(req.Tools) > 0 {
		geminiReq.Tools = []geminiTool{{FunctionDeclarations: buildGeminiTools(req.Tools)}}
	}

	// Marshal request
	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// Build URL without API key (key goes in header to prevent log exposure)
	url := fmt.Sprintf("%s/models/%s:generateContent", p.config.Endpoint, model)

	// Create HTTP request
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Use x-goog-api-key header instead of URL parameter to prevent API key exposure in logs
	httpReq.Header.Set("x-goog-api-key", p.config.APIKey)

	p.log().Request("POST", url, map[string]interface{}{"model": model})

	// Execute request
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	p.log().Response("POST", url, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, fmt.Errorf("Gemini error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	// Parse response
	var geminiResp geminiGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	// Extract text and tool calls
	candidate := geminiResp.Candidates[0]
	result := &ChatResponse{
		Model:            model,
		PromptTokens:     geminiResp.UsageMetadata.PromptTokenCount,
		CompletionTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
		Duration:         time.Since(start),
		FinishReason:     candidate.FinishReason,
	}
	result.TokensUsed = result.PromptTokens + result.CompletionTokens

	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			result.Content += part.Text
		}
		if part.FunctionCall != nil {
			args := "{}"
			if len(part.FunctionCall.Args) > 0 {
				args = string(part.FunctionCall.Args)
			}
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}

	return result, nil
}

// Embed returns the embedding vector for text using the embedContent
// endpoint. An empty model defaults to text-embedding-004.
func (p *GeminiProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if model == "" {
		model = "text-embedding-004"
	}

	body, err := json.Marshal(geminiEmbedRequest{
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", p.config.Endpoint, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, fmt.Errorf("Gemini embed error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var embedResp geminiEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(embedResp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("empty embedding in response")
	}

	return embedResp.Embedding.Values, nil
}

// buildGeminiContents converts conversation messages to Gemini contents.
// Gemini uses "model" instead of "assistant", has no tool role (results
// travel back as user-role functionResponse parts), and takes the system
// prompt as a separate field.
func buildGeminiContents(messages []Message) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))
	for _, msg := range messages {
		switch {
		case msg.Role == RoleSystem:
			// Lifted into systemInstruction by the caller.
			continue
		case msg.ToolCall != nil:
			contents = append(contents, geminiContent{
				Role: "model",
				Parts: []geminiPart{{
					FunctionCall: &geminiFunctionCall{
						Name: msg.ToolCall.Name,
						Args: json.RawMessage(msg.ToolCall.Arguments),
					},
				}},
			})
		case msg.ToolResult != nil:
			contents = append(contents, geminiContent{
				Role: "user",
				Parts: []geminiPart{{
					FunctionResponse: &geminiFunctionResponse{
						Name:     msg.ToolResult.Name,
						Response: map[string]any{"result": msg.ToolResult.Content},
					},
				}},
			})
		default:
			role := msg.Role
			// Gemini uses "user" and "model" instead of "assistant"
			if role == RoleAssistant {
				role = "model"
			}
			contents = append(contents, geminiContent{
				Role:  role,
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}
	return contents
}

func buildGeminiTools(tools []Tool) []geminiFunctionDecl {
	decls := make([]geminiFunctionDecl, 0, len(tools))
	for _, t := range tools {
		decl := geminiFunctionDecl{
			Name:        t.Name,
			Description: t.Description,
		}
		if len(t.Parameters.Properties) > 0 {
			params := &geminiSchema{
				Type:       "object",
				Properties: make(map[string]geminiSchema, len(t.Parameters.Properties)),
				Required:   t.Parameters.Required,
			}
			for name, prop := range t.Parameters.Properties {
				params.Properties[name] = geminiSchema{
					Type:        prop.Type,
					Description: prop.Description,
				}
			}
			decl.Parameters = params
		}
		decls = append(decls, decl)
	}
	return decls
}

// Gemini API types
type geminiGenerateRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"functionDeclarations"`
}

type geminiFunctionDecl struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Parameters  *geminiSchema `json:"parameters,omitempty"`
}

// geminiSchema is the subset of OpenAPI schema Gemini accepts for function
// parameters. Description is only set on leaf property schemas.
type geminiSchema struct {
	Type        string                  `json:"type"`
	Description string                  `json:"description,omitempty"`
	Properties  map[string]geminiSchema `json:"properties,omitempty"`
	Required    []string                `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason  string `json:"finishReason"`
		SafetyRatings []struct {
			Category    string `json:"category"`
			Probability string `json:"probability"`
		} `json:"safetyRatings"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiEmbedRequest struct {
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}
