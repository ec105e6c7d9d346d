package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curiolabs/curio/internal/agent"
	"github.com/curiolabs/curio/internal/data"
	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/persona"
	"github.com/curiolabs/curio/internal/wiki"
)

// finalAnswer is a complete agent reply: reasoning plus the JSON block the
// parser extracts personas from.
const finalAnswer = "Ranked the strongest matches.\n" +
	"```json\n" +
	"[{\"name\": \"C.V. Raman\", \"description\": \"Nobel laureate in physics\"}, " +
	"{\"name\": \"Homi Bhabha\", \"description\": \"Architect of India's nuclear programme\"}, " +
	"{\"name\": \"Vikram Sarabhai\", \"description\": \"Father of the Indian space programme\"}]\n" +
	"```"

// scriptedTurn is one canned model reply.
type scriptedTurn struct {
	resp *llm.ChatResponse
	err  error
}

// scriptedProvider replays a fixed script of model replies; calls past the
// end of the script fail, which doubles as an always-failing provider.
type scriptedProvider struct {
	script  []scriptedTurn
	calls   int
	offline bool
}

func (s *scriptedProvider) Chat(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.calls++
	if s.calls > len(s.script) {
		return nil, errors.New("unscripted model call")
	}
	turn := s.script[s.calls-1]
	return turn.resp, turn.err
}

func (s *scriptedProvider) Name() string    { return "scripted" }
func (s *scriptedProvider) Available() bool { return !s.offline }

func textResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{Content: text, FinishReason: "stop"}
}

// stubBios is a canned BioFetcher.
type stubBios struct {
	bio *wiki.Bio
	err error
}

func (s *stubBios) Fetch(_ context.Context, name string) (*wiki.Bio, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.bio != nil {
		return s.bio, nil
	}
	return &wiki.Bio{Name: name, Found: false}, nil
}

// stubValidator passes every persona.
type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, _, _, _, _ string) persona.ExpertiseScore {
	return persona.ExpertiseScore{Score: 80, Reasoning: "stub", IsExpert: true}
}

// newTestServer builds a server around the given provider, with a real
// store so analytics can be asserted.
func newTestServer(t *testing.T, provider llm.Provider, bios agent.BioFetcher) (*Server, *data.Store) {
	t.Helper()
	store, err := data.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	if bios == nil {
		bios = &stubBios{}
	}
	s := New(Deps{
		Provider:  provider,
		Catalog:   knowledge.Default(),
		Bios:      bios,
		Validator: stubValidator{},
		Store:     store,
	}, &Config{Version: "test"})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, store
}

func postSearch(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func countEvents(t *testing.T, store *data.Store, eventType string) int {
	t.Helper()
	var n int
	err := store.DB().QueryRow(
		`SELECT COUNT(*) FROM analytics WHERE event_type = ?`, eventType).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestSearchEndpoint(t *testing.T) {
	provider := &scriptedProvider{script: []scriptedTurn{
		{resp: textResponse(finalAnswer)},
	}}
	s, store := newTestServer(t, provider, nil)

	rec := postSearch(t, s.Handler(), `{"topic": "physics", "region": "India"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, agent.StatusSuccess, resp.Status)
	assert.Equal(t, "physics", resp.Topic)
	assert.Equal(t, "India", resp.Region)
	assert.False(t, resp.Fallback)
	require.Len(t, resp.Personas, 3)
	assert.Equal(t, "C.V. Raman", resp.Personas[0].Name)

	assert.Equal(t, 1, countEvents(t, store, "search_performed"))
}

func TestSearchEndpointValidation(t *testing.T) {
	s, _ := newTestServer(t, &scriptedProvider{}, nil)
	handler := s.Handler()

	t.Run("malformed body", func(t *testing.T) {
		rec := postSearch(t, handler, `{not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var apiErr APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.Code)
		assert.Equal(t, "invalid request body", apiErr.Message)
	})

	t.Run("missing topic", func(t *testing.T) {
		rec := postSearch(t, handler, `{"topic": "   "}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var apiErr APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		assert.Equal(t, "topic is required", apiErr.Message)
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestSearchFallsBackToDirect(t *testing.T) {
	// Every model call fails: the agent errors out and the direct search
	// degrades to the curated catalog, which still yields three personas.
	provider := &scriptedProvider{}
	s, _ := newTestServer(t, provider, nil)

	rec := postSearch(t, s.Handler(), `{"topic": "physics", "region": "India"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, agent.StatusSuccess, resp.Status)
	assert.True(t, resp.Fallback)
	assert.Len(t, resp.Personas, 3)
}

func TestSearchDirectMode(t *testing.T) {
	provider := &scriptedProvider{}
	s, _ := newTestServer(t, provider, nil)

	rec := postSearch(t, s.Handler(), `{"topic": "physics", "agent": false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, agent.StatusSuccess, resp.Status)
	assert.Len(t, resp.Personas, 3)
	// Requested mode, not a degradation.
	assert.False(t, resp.Fallback)
	assert.Equal(t, knowledge.GlobalRegion, resp.Region)
}

func TestBioEndpoint(t *testing.T) {
	article := `<html><body>
<p>Marie Curie was a Polish and naturalised-French physicist and chemist who conducted pioneering research on radioactivity.</p>
</body></html>`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wiki/Marie_Curie" {
			_, _ = w.Write([]byte(article))
			return
		}
		http.NotFound(w, r)
	}))
	defer upstream.Close()

	s, _ := newTestServer(t, &scriptedProvider{}, wiki.NewClient(wiki.WithBaseURL(upstream.URL)))
	handler := s.Handler()

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bio/Marie%20Curie", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var bio wiki.Bio
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bio))
		assert.True(t, bio.Found)
		assert.Equal(t, "Marie Curie", bio.Name)
		assert.Contains(t, bio.Bio, "pioneering research on radioactivity")
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bio/Nobody%20Famous", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var apiErr APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
		assert.Equal(t, "no biography found", apiErr.Message)
		assert.Equal(t, "Nobody Famous", apiErr.Details)
	})
}

func TestBioEndpointUpstreamError(t *testing.T) {
	bios := &stubBios{err: errors.New("wikipedia unreachable")}
	s, _ := newTestServer(t, &scriptedProvider{}, bios)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bio/Anyone", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s, _ := newTestServer(t, &scriptedProvider{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var health HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "healthy", health.Status)
		assert.Equal(t, "curio-api", health.Service)
		assert.Equal(t, "test", health.Version)
		assert.Equal(t, "scripted", health.Provider)
		assert.True(t, health.ModelOK)
		assert.Equal(t, "ok", health.Database)
		assert.Zero(t, health.Clients)
	})

	t.Run("degraded without model", func(t *testing.T) {
		s, _ := newTestServer(t, &scriptedProvider{offline: true}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		var health HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
		assert.Equal(t, "degraded", health.Status)
		assert.False(t, health.ModelOK)
	})
}

func TestCORSHeaders(t *testing.T) {
	s, _ := newTestServer(t, &scriptedProvider{}, nil)
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
