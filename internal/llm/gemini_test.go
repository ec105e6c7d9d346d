package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGeminiChat verifies the basic request/response flow: auth header,
// system instruction, role mapping, and usage accounting.
func TestGeminiChat(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	var captured geminiGenerateRequest
	var gotPath, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&captured)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "Hello from Gemini"}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     12,
				"candidatesTokenCount": 5,
				"totalTokenCount":      17,
			},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(&ProviderConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
		Model:    "gemini-2.5-flash",
	})

	resp, err := provider.Chat(context.Background(), &ChatRequest{
		SystemPrompt: "Be concise.",
		Messages: []Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "how are you"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello from Gemini", resp.Content)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, 12, resp.PromptTokens)
	assert.Equal(t, 5, resp.CompletionTokens)
	assert.Equal(t, 17, resp.TokensUsed)
	assert.Equal(t, "STOP", resp.FinishReason)

	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.NotNil(t, captured.SystemInstruction)
	assert.Equal(t, "Be concise.", captured.SystemInstruction.Parts[0].Text)

	// Gemini speaks "model", not "assistant"
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "user", captured.Contents[2].Role)
}

// TestGeminiChatToolCalls verifies function declarations go out and
// functionCall parts come back as tool calls.
func TestGeminiChatToolCalls(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	var captured geminiGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role": "model",
					"parts": []map[string]any{{
						"functionCall": map[string]any{
							"name": "search_experts",
							"args": map[string]any{"topic": "physics", "region": "India"},
						},
					}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(&ProviderConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
	})

	resp, err := provider.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "find physics experts in India"}},
		Tools: []Tool{{
			Name:        "search_experts",
			Description: "Search the expert catalog",
			Parameters: ToolParameters{
				Type: "object",
				Properties: map[string]ToolProperty{
					"topic":  {Type: "string", Description: "Topic to search"},
					"region": {Type: "string", Description: "Region filter"},
				},
				Required: []string{"topic"},
			},
		}},
	})
	require.NoError(t, err)

	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "search_experts", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"topic":"physics","region":"India"}`, resp.ToolCalls[0].Arguments)

	require.Len(t, captured.Tools, 1)
	decls := captured.Tools[0].FunctionDeclarations
	require.Len(t, decls, 1)
	assert.Equal(t, "search_experts", decls[0].Name)
	require.NotNil(t, decls[0].Parameters)
	assert.Equal(t, "object", decls[0].Parameters.Type)
	assert.Equal(t, []string{"topic"}, decls[0].Parameters.Required)
	assert.Equal(t, "string", decls[0].Parameters.Properties["topic"].Type)
}

// TestGeminiChatToolRoundTrip verifies the wire shape of a tool exchange:
// the model's call echoed back with role "model" and the result delivered
// as a user-role functionResponse part.
func TestGeminiChatToolRoundTrip(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	var captured geminiGenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "Found 3 experts."}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer server.Close()

	provider := NewGeminiProvider(&ProviderConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
	})

	resp, err := provider.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "user", Content: "find experts"},
			{Role: "assistant", ToolCall: &ToolCall{Name: "search_experts", Arguments: `{"topic":"physics"}`}},
			{Role: "tool", ToolResult: &ToolResult{Name: "search_experts", Content: `["C.V. Raman"]`}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Found 3 experts.", resp.Content)

	require.Len(t, captured.Contents, 3)

	call := captured.Contents[1]
	assert.Equal(t, "model", call.Role)
	require.NotNil(t, call.Parts[0].FunctionCall)
	assert.Equal(t, "search_experts", call.Parts[0].FunctionCall.Name)

	result := captured.Contents[2]
	assert.Equal(t, "user", result.Role)
	require.NotNil(t, result.Parts[0].FunctionResponse)
	assert.Equal(t, "search_experts", result.Parts[0].FunctionResponse.Name)
	assert.Equal(t, `["C.V. Raman"]`, result.Parts[0].FunctionResponse.Response["result"])
}

// TestGeminiChatAPIError verifies error surfaces carry the status code and
// body so the fallback classifier can act on them.
func TestGeminiChatAPIError(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"Quota exceeded"}}`))
	}))
	defer server.Close()

	provider := NewGeminiProvider(&ProviderConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
	})

	_, err := provider.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.True(t, IsRateLimitError(err))
	assert.True(t, IsRecoverableAPIError(err))
}

// TestGeminiChatNoAPIKey verifies the provider refuses to call out without
// credentials.
func TestGeminiChatNoAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	provider := NewGeminiProvider(&ProviderConfig{})
	assert.False(t, provider.Available())

	_, err := provider.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
}

// TestGeminiAPIKeyFromEnvironment verifies the GEMINI_API_KEY fallback.
func TestGeminiAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	provider := NewGeminiProvider(&ProviderConfig{})
	assert.True(t, provider.Available())
	assert.Equal(t, "env-key", provider.config.APIKey)
}

// TestGeminiEmbed verifies the embedContent endpoint.
func TestGeminiEmbed(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	t.Run("success", func(t *testing.T) {
		var gotPath string
		var captured geminiEmbedRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			json.NewDecoder(r.Body).Decode(&captured)
			json.NewEncoder(w).Encode(map[string]any{
				"embedding": map[string]any{"values": []float32{0.5, -0.25, 0.125}},
			})
		}))
		defer server.Close()

		provider := NewGeminiProvider(&ProviderConfig{
			Endpoint: server.URL,
			APIKey:   "test-key",
		})

		vec, err := provider.Embed(context.Background(), "", "remember this")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, -0.25, 0.125}, vec)
		// Empty model falls back to the default embedding model
		assert.Equal(t, "/models/text-embedding-004:embedContent", gotPath)
		assert.Equal(t, "remember this", captured.Content.Parts[0].Text)
	})

	t.Run("empty_embedding", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"embedding": map[string]any{}})
		}))
		defer server.Close()

		provider := NewGeminiProvider(&ProviderConfig{
			Endpoint: server.URL,
			APIKey:   "test-key",
		})

		_, err := provider.Embed(context.Background(), "text-embedding-004", "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty embedding")
	})
}
